// Package file persists ragchat configuration on the local filesystem:
// settings in a TOML file and answer prompts as plain text templates.
package file
