package scraper

import (
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/participa/config"
)

// LaunchFlag is a single Chromium command-line switch.
type LaunchFlag struct {
	Name   flags.Flag
	Values []string
}

// LaunchOptions is the fixed set of switches every run launches Chromium
// with. It is built once at startup and never mutated.
type LaunchOptions struct {
	flags []LaunchFlag
}

// NewLaunchOptions builds the launch switches from the browser config.
func NewLaunchOptions(cfg config.BrowserConfig) LaunchOptions {
	var fs []LaunchFlag
	if cfg.Headless {
		fs = append(fs, LaunchFlag{Name: flags.Headless})
	}
	if cfg.NoSandbox {
		fs = append(fs, LaunchFlag{Name: flags.NoSandbox})
	}
	fs = append(fs,
		LaunchFlag{Name: "disable-dev-shm-usage"},
		LaunchFlag{Name: "disable-gpu"},
		LaunchFlag{Name: "disable-features", Values: []string{"NetworkService", "VizDisplayCompositor"}},
		LaunchFlag{Name: "window-size", Values: []string{cfg.WindowSize}},
		// Chromium writes its log to stderr, which the launcher forwards
		// into the run's log file.
		LaunchFlag{Name: "enable-logging", Values: []string{"stderr"}},
		LaunchFlag{Name: "v", Values: []string{"1"}},
	)
	return LaunchOptions{flags: fs}
}

// Flags returns a copy of the switches.
func (o LaunchOptions) Flags() []LaunchFlag {
	out := make([]LaunchFlag, len(o.flags))
	for i, f := range o.flags {
		out[i] = LaunchFlag{Name: f.Name, Values: append([]string(nil), f.Values...)}
	}
	return out
}

// Args renders the switches the way they appear on the command line.
func (o LaunchOptions) Args() []string {
	args := make([]string, 0, len(o.flags))
	for _, f := range o.flags {
		arg := "--" + string(f.Name)
		if len(f.Values) > 0 {
			arg += "=" + strings.Join(f.Values, ",")
		}
		args = append(args, arg)
	}
	return args
}

// Apply writes the switches onto l. Headless mode is removed from l when the
// options do not ask for it, since rod's launcher enables it by default.
func (o LaunchOptions) Apply(l *launcher.Launcher) *launcher.Launcher {
	headless := false
	for _, f := range o.flags {
		if f.Name == flags.Headless {
			headless = true
		}
		l = l.Set(f.Name, f.Values...)
	}
	if !headless {
		l = l.Delete(flags.Headless)
	}
	return l
}
