package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"i4.energy/across/headsetctl/at"
	"i4.energy/across/headsetctl/headset"
	"i4.energy/across/headsetctl/logger"
)

// Shell is the interactive command loop started with -interactive.
type Shell struct {
	ctl Controller
	log logger.Logger
	rl  *readline.Instance
	out io.Writer
}

func NewShell(ctl Controller, log logger.Logger) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "headset> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{ctl: ctl, log: log, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the readline prompt. Log
// output should go here while the shell runs.
func (sh *Shell) Stdout() io.Writer {
	return sh.rl.Stdout()
}

// Observer prints session events above the prompt.
func (sh *Shell) Observer() headset.Observer {
	return headset.ObserverFuncs{
		OnConnectionChanged: func(connected bool) {
			if connected {
				fmt.Fprintln(sh.out, "* connected")
			} else {
				fmt.Fprintln(sh.out, "* disconnected")
			}
		},
		OnANCChanged: func(enabled bool) {
			fmt.Fprintf(sh.out, "* anc %s\n", onOff(enabled))
		},
		OnTransparencyChanged: func(enabled bool) {
			fmt.Fprintf(sh.out, "* transparency %s\n", onOff(enabled))
		},
	}
}

// Run reads commands until EOF, "quit" or ctx ends, then calls cancel.
func (sh *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer sh.rl.Close()

	sh.printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(sh.out, "Exiting...")
			cancel()
			return
		}
		if sh.execute(ctx, line) {
			cancel()
			return
		}
	}
}

// execute runs one command line and reports whether the shell should exit.
func (sh *Shell) execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "quit", "exit", "q":
		return true
	case "status", "s":
		sh.printState()
	case "refresh":
		if err = sh.ctl.QueryStatus(ctx); err == nil {
			sh.printState()
		}
	case "connect", "c":
		err = sh.ctl.Connect(ctx)
	case "disconnect", "d":
		err = sh.ctl.Disconnect(ctx)
	case "anc":
		err = sh.cmdMode(ctx, args, sh.ctl.SetANC, sh.ctl.ToggleANC)
	case "transparency", "t":
		err = sh.cmdMode(ctx, args, sh.ctl.SetTransparency, sh.ctl.ToggleTransparency)
	case "volume", "v":
		err = sh.cmdVolume(ctx, args)
	case "name":
		err = sh.cmdName(ctx, input, args)
	case "address":
		var addr string
		if addr, err = sh.ctl.BluetoothAddress(ctx); err == nil {
			fmt.Fprintln(sh.out, addr)
		}
	case "at":
		err = sh.cmdAT(ctx, input)
	case "level":
		err = sh.cmdLevel(args)
	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help')\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
	return false
}

func (sh *Shell) cmdMode(ctx context.Context, args []string, set func(context.Context, bool) error, toggle func(context.Context) error) error {
	if len(args) == 0 {
		return toggle(ctx)
	}
	switch strings.ToLower(args[0]) {
	case at.On:
		return set(ctx, true)
	case at.Off:
		return set(ctx, false)
	case "toggle":
		return toggle(ctx)
	}
	return fmt.Errorf("%w: expected on, off or toggle", headset.ErrInvalidArgument)
}

func (sh *Shell) cmdVolume(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: volume up|down [steps]", headset.ErrInvalidArgument)
	}
	direction, err := headset.ParseVolumeDirection(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	steps := 1
	if len(args) > 1 {
		if steps, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: steps %q", headset.ErrInvalidArgument, args[1])
		}
	}
	return sh.ctl.AdjustVolume(ctx, direction, steps)
}

// cmdName keeps the name's inner spacing by cutting it from the raw input.
func (sh *Shell) cmdName(ctx context.Context, input string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: name <name>|reset", headset.ErrInvalidArgument)
	}
	if len(args) == 1 && strings.ToLower(args[0]) == "reset" {
		return sh.ctl.ResetDeviceName(ctx)
	}
	_, name, _ := strings.Cut(input, " ")
	return sh.ctl.SetDeviceName(ctx, strings.TrimSpace(name))
}

func (sh *Shell) cmdAT(ctx context.Context, input string) error {
	_, instruction, _ := strings.Cut(input, " ")
	response, err := sh.ctl.Send(ctx, strings.TrimSpace(instruction))
	if err != nil {
		return err
	}
	for _, l := range at.Lines(response) {
		fmt.Fprintf(sh.out, "  %s\n", l)
	}
	return nil
}

func (sh *Shell) cmdLevel(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(sh.out, sh.log.Level())
		return nil
	}
	level, err := logger.ParseLevel(args[0])
	if err != nil {
		return err
	}
	sh.log.SetLevel(level)
	return nil
}

func (sh *Shell) printState() {
	st := sh.ctl.State()
	fmt.Fprintf(sh.out, "connection: %s\nanc: %s\ntransparency: %s\n", st.Conn, onOff(st.ANC), onOff(st.Transparency))
}

func (sh *Shell) printHelp() {
	fmt.Fprint(sh.out, `Commands:
  status | s                  show mirrored state
  refresh                     query ANC and transparency from the headset
  connect | c                 open the channel
  disconnect | d              close the channel
  anc [on|off|toggle]         noise cancelling
  transparency | t [on|off|toggle]
  volume | v up|down [steps]  adjust volume
  name <name> | name reset    advertised device name
  address                     headset hardware address
  at <instruction>            send a raw AT instruction
  level [debug|info|warn|error]
  quit | q
`)
}

func onOff(b bool) string {
	if b {
		return at.On
	}
	return at.Off
}
