package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ICMPProber shells out to the system ping binary and reports the average
// round-trip time.
type ICMPProber struct {
	Count   int
	Timeout time.Duration

	// run executes the ping binary; swapped in tests.
	run func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

func NewICMPProber(count int, timeout time.Duration) *ICMPProber {
	if count < 1 {
		count = 4
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ICMPProber{Count: count, Timeout: timeout, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (p *ICMPProber) Probe(ctx context.Context, address string) (string, error) {
	host, _ := splitAddress(address, 0)

	// every echo may wait the full timeout
	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.Count+1)*p.Timeout)
	defer cancel()

	run := p.run
	if run == nil {
		run = runCommand
	}
	stdout, stderr, err := run(ctx, "ping", p.args(host)...)
	out := string(stdout)

	if err != nil {
		var ee *exec.Error
		switch {
		case errors.As(err, &ee):
			return "", fmt.Errorf("failed to execute ping command: %w", err)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("ping to %s timeout", host)
		case len(bytes.TrimSpace(stderr)) > 0:
			return "", fmt.Errorf("ping command error: %s", strings.TrimSpace(string(stderr)))
		case lostEverything(out):
			return "", fmt.Errorf("server did not respond to ping requests (timeout): %s", host)
		case strings.Contains(out, "could not find host"), strings.Contains(out, "could not resolve"):
			return "", fmt.Errorf("could not resolve server hostname %s", host)
		default:
			return "", fmt.Errorf("failed to ping server %s: %s", host, strings.TrimSpace(out))
		}
	}

	if lostEverything(out) {
		return "", fmt.Errorf("server did not respond to ping requests (timeout): %s", host)
	}
	if ms, ok := parsePingTime(out); ok {
		return fmt.Sprintf("%dms (ICMP)", ms), nil
	}
	return "ping succeeded but reply time could not be parsed", nil
}

func (p *ICMPProber) args(host string) []string {
	count := strconv.Itoa(p.Count)
	if runtime.GOOS == "windows" {
		return []string{"-n", count, "-w", strconv.FormatInt(p.Timeout.Milliseconds(), 10), host}
	}
	secs := int(math.Ceil(p.Timeout.Seconds()))
	return []string{"-c", count, "-W", strconv.Itoa(secs), host}
}

func lostEverything(out string) bool {
	return strings.Contains(out, "Request timed out") ||
		strings.Contains(out, "100% packet loss") ||
		strings.Contains(out, "100% loss")
}

var (
	windowsAverage = regexp.MustCompile(`Average = (\d+)ms`)
	unixSummary    = regexp.MustCompile(`min/avg/max[^=]*= [\d.]+/([\d.]+)/`)
	replyTime      = regexp.MustCompile(`time[=<]([\d.]+) ?ms`)
)

// parsePingTime pulls an average RTT in whole milliseconds out of ping's
// output: the summary line when present, else the mean of single replies.
func parsePingTime(out string) (int, bool) {
	if m := windowsAverage.FindStringSubmatch(out); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	if m := unixSummary.FindStringSubmatch(out); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(math.Round(f)), true
		}
	}

	var total float64
	var count int
	for _, m := range replyTime.FindAllStringSubmatch(out, -1) {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += f
			count++
		}
	}
	if count > 0 {
		return int(math.Round(total / float64(count))), true
	}
	return 0, false
}
