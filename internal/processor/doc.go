// Package processor wires the resolved configuration into a review
// session and runs one of the modes: GUI, console, Anki export, archive
// or model listing. It is the main coordinator between all other
// components.
package processor
