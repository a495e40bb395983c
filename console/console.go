package console

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

const (
	// Method is the method every command is registered under.
	Method = "CLI"

	// NamePrefix prefixes the route name of every command.
	NamePrefix = "cli:"

	// AttrArgv is the kernel.Request attribute holding the full argv.
	AttrArgv = "argv"
)

// A Command is invoked by name with up to len(Args) positional arguments.
// Every argument is optional; targets receive zero values for those not given.
type Command struct {
	Args        []string
	Description string
	Name        string
	Target      target.Target
}

// Definition describes cmd as a route.
func (cmd Command) Definition() route.Definition {
	var b strings.Builder
	b.WriteString("/" + cmd.Name)
	for _, arg := range cmd.Args {
		b.WriteString("/{" + arg + "?}")
	}

	return route.New(b.String(), cmd.Target, route.Methods(Method), route.Name(NamePrefix+cmd.Name))
}

func (cmd Command) valid() error {
	if cmd.Name == "" || strings.ContainsAny(cmd.Name, "/{} ") {
		return fmt.Errorf("%w: command name %q", switchback.ErrNotValid, cmd.Name)
	}

	return cmd.Target.Valid()
}

// A Console collects Commands.
type Console struct {
	mu       sync.Mutex
	commands map[string]Command
}

// New constructs an empty *Console.
func New() *Console { return &Console{commands: make(map[string]Command)} }

// Register adds cmds to c.
func (c *Console) Register(cmds ...Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cmd := range cmds {
		if err := cmd.valid(); err != nil {
			return err
		}

		if _, ok := c.commands[cmd.Name]; ok {
			return fmt.Errorf("%w: command %s", switchback.ErrExists, cmd.Name)
		}

		c.commands[cmd.Name] = cmd
	}

	return nil
}

// Commands lists the Commands in c by name.
func (c *Console) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmds := make([]Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		cmds = append(cmds, cmd)
	}

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Apply adds every Command in c to b.
func (c *Console) Apply(b *collection.Builder) error {
	for _, cmd := range c.Commands() {
		if _, err := b.AddRoute(cmd.Definition()); err != nil {
			return fmt.Errorf("command %s: %w", cmd.Name, err)
		}
	}

	return nil
}

// Usage writes a line per Command in c to w.
func (c *Console) Usage(w io.Writer) error {
	for _, cmd := range c.Commands() {
		line := cmd.Name
		for _, arg := range cmd.Args {
			line += " [" + arg + "]"
		}

		if cmd.Description != "" {
			line += "\t" + cmd.Description
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// NewRequest converts argv, a command name followed by its arguments, into a kernel.Request.
//
// Arguments cannot contain "/" or be empty, since each becomes one path segment.
func NewRequest(ctx context.Context, argv []string) (*kernel.Request, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no command", switchback.ErrMissingData)
	}

	for _, arg := range argv {
		if arg == "" || strings.Contains(arg, "/") {
			return nil, fmt.Errorf("%w: argument %q", switchback.ErrNotValid, arg)
		}
	}

	return &kernel.Request{
		Attributes: map[string]any{AttrArgv: argv},
		Context:    ctx,
		Method:     Method,
		Path:       "/" + strings.Join(argv, "/"),
		Secure:     true,
	}, nil
}

// Run dispatches argv through k, writes the result's body to w
// and returns the exit code the process ought to end with.
//
// A result with a status under 400 exits 0; a 404 exits 127, matching an unknown shell command;
// anything else exits 1.
func Run(ctx context.Context, k *kernel.Kernel, argv []string, w io.Writer) (int, error) {
	req, err := NewRequest(ctx, argv)
	if err != nil {
		return 2, err
	}

	res := k.Handle(req)
	if res == nil {
		return 0, nil
	}

	if err := write(w, res); err != nil {
		return 1, err
	}

	switch {
	case res.Status < http.StatusBadRequest:
		return 0, nil
	case res.Status == http.StatusNotFound:
		return 127, fmt.Errorf("%w: command %s", switchback.ErrNotExist, argv[0])
	default:
		return 1, nil
	}
}

func write(w io.Writer, res *dispatch.Result) error {
	if res.Body == nil {
		return nil
	}

	s, err := cast.ToStringE(res.Body)
	if err != nil {
		s = fmt.Sprintf("%+v", res.Body)
	}

	if s == "" {
		return nil
	}

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}

	_, err = io.WriteString(w, s)
	return err
}
