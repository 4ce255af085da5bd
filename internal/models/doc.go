// Package models lists the OpenAI models usable for word translation and
// speech with the configured API key.
package models
