// Package cli implements the scriptenc command line.
package cli
