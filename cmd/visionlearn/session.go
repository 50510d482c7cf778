package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/visionlearn/internal/appstate"
	"github.com/example/visionlearn/internal/canvas"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// sessionCmd drives one editor from text commands.
type sessionCmd struct {
	file  string
	execs commandList
	stdin io.Reader

	session *appstate.Session
	*root
	fs *flag.FlagSet
}

func (s *sessionCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseSessionCmd(args []string, r *root) (*sessionCmd, error) {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	s := &sessionCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.Usage = usageFunc(s)
	fs.StringVar(&s.file, "file", "", "image to load before the first command")
	fs.Var(&s.execs, "e", "execute a command and exit (may be specified multiple times)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

func (s *sessionCmd) Run() error {
	ed, err := s.root.newEditor()
	if err != nil {
		return err
	}
	s.session = s.root.plainSession(ed)
	if s.file != "" {
		if _, err := s.executeLine("load " + s.file); err != nil {
			return err
		}
	}
	if len(s.execs) > 0 {
		for _, line := range s.execs {
			done, err := s.executeLine(line)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}

	out := s.root.out()
	fmt.Fprintln(out, "Enter commands (type 'exit' to quit)")
	scanner := bufio.NewScanner(s.stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := s.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(s.root.errOut(), appstate.Message(err))
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

func (s *sessionCmd) point(name string, args []string) (canvas.Point, error) {
	v, err := expectFloats(args, 2, name)
	if err != nil {
		return canvas.Point{}, err
	}
	return canvas.Point{X: v[0], Y: v[1]}, nil
}

// executeLine runs one command. done reports a request to leave.
func (s *sessionCmd) executeLine(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	ed := s.session.Editor
	out := s.root.out()
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "load":
		if len(args) != 1 {
			return false, fmt.Errorf("load requires a file")
		}
		src, err := readSource(args[0])
		if err != nil {
			return false, err
		}
		if err := ed.LoadSource(src.Data); err != nil {
			return false, err
		}
		s.session.Topics.Reset(nil)
		fmt.Fprintf(out, "loaded %s (generation %d)\n", args[0], ed.Generation())
	case "tool":
		if len(args) != 1 {
			return false, fmt.Errorf("tool requires rect, pen or crop")
		}
		t, err := canvas.ParseTool(args[0])
		if err != nil {
			return false, err
		}
		ed.SetTool(t)
	case "color":
		if len(args) != 1 {
			return false, fmt.Errorf("color requires a value")
		}
		c, err := canvas.ParseColor(args[0])
		if err != nil {
			return false, err
		}
		st := ed.Style()
		st.Color = c
		ed.SetStyle(st)
	case "width":
		if len(args) != 1 {
			return false, fmt.Errorf("width requires a value")
		}
		w, err := strconv.ParseFloat(args[0], 64)
		if err != nil || w <= 0 {
			return false, fmt.Errorf("invalid width %q", args[0])
		}
		st := ed.Style()
		st.Width = w
		ed.SetStyle(st)
	case "down", "move", "up":
		p, err := s.point(cmd, args)
		if err != nil {
			return false, err
		}
		var handled bool
		switch cmd {
		case "down":
			if !ed.HasSource() {
				return false, canvas.ErrNoSource
			}
			handled = ed.PointerDown(p)
		case "move":
			handled = ed.PointerMove(p)
		default:
			handled = ed.PointerUp(p)
		}
		if !handled {
			fmt.Fprintf(out, "%s ignored in state %s\n", cmd, ed.State())
		}
	case "leave":
		ed.PointerLeave()
	case "confirm":
		if err := ed.ConfirmCrop(); err != nil {
			return false, err
		}
		b := ed.Image().Bounds()
		fmt.Fprintf(out, "cropped to %dx%d\n", b.Dx(), b.Dy())
	case "cancel":
		ed.CancelCrop()
	case "undo":
		if !ed.Undo() {
			fmt.Fprintln(out, "nothing to undo")
		}
	case "reset":
		s.session.Reset()
	case "state":
		fmt.Fprintln(out, describeEditor(ed))
	case "save":
		if len(args) > 1 {
			return false, fmt.Errorf("save takes at most one file")
		}
		if len(args) == 1 {
			s.session.Output = args[0]
		}
		path, err := s.session.Save()
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "saved %s\n", path)
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

// describeEditor prints the observable editor state on one line.
func describeEditor(ed *canvas.Editor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state=%s tool=%s annotations=%d", ed.State(), ed.Tool(), len(ed.Annotations()))
	if r, ok := ed.CropRegion(); ok {
		fmt.Fprintf(&b, " crop=%g,%g,%gx%g", r.X, r.Y, r.Width, r.Height)
	}
	if img := ed.Image(); img != nil {
		fmt.Fprintf(&b, " source=%dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	} else if ed.HasSource() {
		b.WriteString(" source=undecodable")
	} else {
		b.WriteString(" source=none")
	}
	return b.String()
}
