// Package cli defines the cliprecall root command and its flags, and
// resolves them together with the config file, CLIPRECALL_ environment
// variables and a local .env file into a Config.
package cli
