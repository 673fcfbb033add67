// Command nbody runs a brute-force n-body simulation.
//
// Usage:
//
//	nbody T dt < universe.txt
//
// It reads the initial universe from stdin, simulates T seconds in steps of
// dt seconds, and prints the final universe to stdout in the same format.
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/quillaja/nbody2d/physics"
	"github.com/quillaja/nbody2d/textio"
)

var (
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	usageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

const usage = "usage: nbody T delta_t < universe.txt"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process: it returns the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	total, dt, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, errStyle.Render(err.Error()))
		fmt.Fprintln(stderr, usageStyle.Render(usage))
		return 1
	}

	in, err := textio.Read(stdin)
	if err != nil {
		fmt.Fprintln(stderr, errStyle.Render(err.Error()))
		return 1
	}

	e := physics.New()
	if err := e.Initialize(in.N, in.Radius, in.Bodies); err != nil {
		fmt.Fprintln(stderr, errStyle.Render(err.Error()))
		return 1
	}
	if err := e.Run(total, dt); err != nil {
		fmt.Fprintln(stderr, errStyle.Render(err.Error()))
		return 1
	}

	if err := textio.Write(stdout, e.FinalState()); err != nil {
		fmt.Fprintln(stderr, errStyle.Render(err.Error()))
		return 1
	}
	return 0
}

// parseArgs reads the two positional arguments, total time and time step.
func parseArgs(args []string) (total, dt float64, err error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%w: expected 2 arguments, got %d", physics.ErrInvalidArgument, len(args))
	}
	if total, err = parseFloat("T", args[0]); err != nil {
		return 0, 0, err
	}
	if dt, err = parseFloat("delta_t", args[1]); err != nil {
		return 0, 0, err
	}
	if !(dt > 0) {
		return 0, 0, fmt.Errorf("%w: delta_t must be positive, got %g", physics.ErrInvalidArgument, dt)
	}
	return total, dt, nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", physics.ErrInvalidArgument, name, s)
	}
	return f, nil
}
