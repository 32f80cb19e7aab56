// Package app wires stores and clients together for the CLI.
package app
