package main

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/roipatch/internal/roi"
)

// inputKind is the kind of one line of annotate input.
type inputKind int

const (
	inputClick inputKind = iota + 1
	inputSave
	inputQuit
)

// input is one parsed line of annotate input.
type input struct {
	kind  inputKind
	event roi.Event
}

var (
	errUnknownCommand = errors.New("unknown command")
	errBadArguments   = errors.New("wrong number of arguments")
	errBadCoordinate  = errors.New("invalid coordinate")
)

// parseInput parses one input line. Blank lines and lines starting with
// '#' return ok == false.
//
//	primary X Y     add a center; X and Y may be fractional
//	primary -       a click that missed the image
//	secondary       remove the last center
//	save            write the coordinate file and overlay image
//	quit            stop reading input
func parseInput(line string) (in input, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return input{}, false, nil
	}

	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "primary", "p":
		if len(args) == 1 && args[0] == "-" {
			return input{kind: inputClick, event: roi.Event{Kind: roi.EventPrimary}}, true, nil
		}
		if len(args) != 2 {
			return input{}, false, fmt.Errorf("%w: primary takes X Y or -", errBadArguments)
		}
		x, err := parseCoordinate(args[0])
		if err != nil {
			return input{}, false, err
		}
		y, err := parseCoordinate(args[1])
		if err != nil {
			return input{}, false, err
		}
		return input{kind: inputClick, event: roi.Event{
			Kind:    roi.EventPrimary,
			Point:   image.Pt(x, y),
			HasData: true,
		}}, true, nil
	case "secondary", "s":
		if len(args) != 0 {
			return input{}, false, fmt.Errorf("%w: secondary takes no arguments", errBadArguments)
		}
		return input{kind: inputClick, event: roi.Event{Kind: roi.EventSecondary}}, true, nil
	case "save", "w":
		return input{kind: inputSave}, true, nil
	case "quit", "q":
		return input{kind: inputQuit}, true, nil
	default:
		return input{}, false, fmt.Errorf("%w: %q", errUnknownCommand, fields[0])
	}
}

// parseCoordinate truncates a canvas position toward zero.
func parseCoordinate(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", errBadCoordinate, s)
	}
	return int(math.Trunc(f)), nil
}

// eventLoop feeds input lines to a session one at a time.
type eventLoop struct {
	session *roi.Session
	out     io.Writer
	logger  *slog.Logger
}

// run reads r until quit or end of input. Malformed lines and clicks that
// miss the image are reported and skipped. A failed save stops the loop.
func (l *eventLoop) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		in, ok, err := parseInput(scanner.Text())
		if err != nil {
			l.logger.Warn("ignoring input line", "line", lineNo, "error", err)
			fmt.Fprintf(l.out, "line %d: %v\n", lineNo, err)
			continue
		}
		if !ok {
			continue
		}

		switch in.kind {
		case inputClick:
			if err := l.session.Handle(in.event); err != nil {
				if errors.Is(err, roi.ErrNoData) {
					continue
				}
				return err
			}
		case inputSave:
			if err := l.session.Save(); err != nil {
				return err
			}
			fmt.Fprintf(l.out, "Saved %d center(s) to %s\n", len(l.session.Centers()), l.session.TextPath())
		case inputQuit:
			l.finish()
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	l.finish()
	return nil
}

func (l *eventLoop) finish() {
	if !l.session.Dirty() {
		return
	}
	l.logger.Warn("input ended with unsaved edits", "centers", len(l.session.Centers()))
	fmt.Fprintln(l.out, "Warning: unsaved edits were discarded (send \"save\" before \"quit\")")
}
