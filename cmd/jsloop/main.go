// Command jsloop runs event-loop simulations from the command line. Given a
// file it prints the console output and, on request, the full step trace.
// Without a file it drops into a small REPL where each entered program runs
// in a fresh simulation.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"jsloop/pkg/driver"
	"jsloop/pkg/interp"
	"jsloop/pkg/trace"
)

func tracer() tracing.Trace {
	return tracing.Select("jsloop.cli")
}

func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	mode := flag.String("mode", "browser", "Event loop model [browser|node]")
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	showSteps := flag.Bool("steps", false, "Print the execution step trace")
	flag.Parse()
	tracer().SetTraceLevel(traceLevel(*tlevel))

	loopMode, err := parseMode(*mode)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	session := driver.New(driver.WithMode(loopMode))

	if flag.NArg() > 0 {
		src, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			pterm.Error.Printfln("Unable to read %s: %v", flag.Arg(0), err)
			os.Exit(1)
		}
		result := session.Run(string(src))
		report(result, *showSteps)
		if len(result.Errors) > 0 {
			os.Exit(1)
		}
		return
	}

	repl(session, *showSteps)
}

func parseMode(s string) (interp.Mode, error) {
	switch strings.ToLower(s) {
	case "browser":
		return interp.ModeBrowser, nil
	case "node":
		return interp.ModeNode, nil
	default:
		return interp.ModeBrowser, fmt.Errorf("unknown mode %q", s)
	}
}

func traceLevel(s string) tracing.TraceLevel {
	switch strings.ToLower(s) {
	case "debug":
		return tracing.LevelDebug
	case "info":
		return tracing.LevelInfo
	default:
		return tracing.LevelError
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func repl(session *driver.Session, showSteps bool) {
	pterm.Info.Println("jsloop REPL, quit with <ctrl>D")
	rl, err := readline.New("jsloop> ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	defer rl.Close()
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		result := session.Run(line)
		report(result, showSteps)
	}
}

func report(result *driver.Result, showSteps bool) {
	for _, entry := range result.Console {
		switch entry.Level {
		case "error":
			pterm.Error.Println(entry.Text)
		case "warn":
			pterm.Warning.Println(entry.Text)
		default:
			pterm.Println(entry.Text)
		}
	}
	if result.Halted {
		pterm.Warning.Println("run halted by a safety cap; trace is partial")
	}
	if showSteps {
		printSteps(result.Steps)
	}
}

func printSteps(steps []trace.Step) {
	rows := pterm.TableData{{"#", "t(ms)", "step", "detail"}}
	for i, s := range steps {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", s.TimestampMS),
			string(s.Type),
			stepDetail(s),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		tracer().Errorf(err.Error())
	}
}

func stepDetail(s trace.Step) string {
	if len(s.Payload) == 0 {
		return ""
	}
	var parts []string
	for _, key := range []string{"id", "name", "label", "phase", "line", "delay", "source", "raw"} {
		if v, ok := s.Payload[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	return strings.Join(parts, " ")
}
