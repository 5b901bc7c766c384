package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OutputLink is one configured (port, metric, neighbor) output triple,
// paired by index with the input port at the same position.
type OutputLink struct {
	Port     int
	Metric   Metric
	Neighbor RouterID
}

// Config is the parsed contents of a router's configuration file.
type Config struct {
	RouterID   RouterID
	InputPorts []int
	Outputs    []OutputLink
}

// ConfigError reports why a configuration file was rejected.
type ConfigError struct {
	Line   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("bad configuration: %s", e.Reason)
	}
	return fmt.Sprintf("bad configuration: %s: %q", e.Reason, e.Line)
}

func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// LoadConfig parses a RIP daemon configuration file from r. Blank lines and
// lines whose first non-blank character is '#' are ignored; exactly three
// content lines are required, in order: router-id, input-ports, outputs.
func LoadConfig(r io.Reader) (*Config, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(lines) != 3 {
		return nil, &ConfigError{Reason: fmt.Sprintf("expected 3 content lines, found %d", len(lines))}
	}

	routerID, err := parseRouterIDLine(lines[0])
	if err != nil {
		return nil, err
	}

	inputPorts, err := parseInputPortsLine(lines[1])
	if err != nil {
		return nil, err
	}

	outputs, err := parseOutputsLine(lines[2], inputPorts)
	if err != nil {
		return nil, err
	}

	if len(outputs) != len(inputPorts) {
		return nil, &ConfigError{Line: lines[2], Reason: "outputs must be one-to-one with input-ports"}
	}

	return &Config{
		RouterID:   routerID,
		InputPorts: inputPorts,
		Outputs:    outputs,
	}, nil
}

func parseRouterIDLine(line string) (RouterID, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "router-id" {
		return 0, &ConfigError{Line: line, Reason: "expected 'router-id N'"}
	}

	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > 64000 {
		return 0, &ConfigError{Line: line, Reason: "router-id must be in [1, 64000]"}
	}
	return RouterID(n), nil
}

func parseInputPortsLine(line string) ([]int, error) {
	fields := splitFields(line)
	if len(fields) < 2 || fields[0] != "input-ports" {
		return nil, &ConfigError{Line: line, Reason: "expected 'input-ports P1, P2, ...'"}
	}

	seen := make(map[int]bool)
	var ports []int
	for _, f := range fields[1:] {
		port, err := strconv.Atoi(f)
		if err != nil || port < 1024 || port > 64000 {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("invalid input port %q", f)}
		}
		if seen[port] {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("duplicate input port %d", port)}
		}
		seen[port] = true
		ports = append(ports, port)
	}
	return ports, nil
}

func parseOutputsLine(line string, inputPorts []int) ([]OutputLink, error) {
	fields := splitFields(line)
	if len(fields) < 2 || fields[0] != "outputs" {
		return nil, &ConfigError{Line: line, Reason: "expected 'outputs P-M-I, ...'"}
	}

	inputSet := make(map[int]bool, len(inputPorts))
	for _, p := range inputPorts {
		inputSet[p] = true
	}

	var outputs []OutputLink
	for _, f := range fields[1:] {
		parts := strings.Split(f, "-")
		if len(parts) != 3 {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("invalid output triple %q", f)}
		}

		port, err := strconv.Atoi(parts[0])
		if err != nil || port < 1024 || port > 64000 || inputSet[port] {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("invalid output port %q", parts[0])}
		}

		metric, err := strconv.Atoi(parts[1])
		if err != nil || metric < 1 || metric > int(Infinity) {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("invalid output metric %q", parts[1])}
		}

		neighbor, err := strconv.Atoi(parts[2])
		if err != nil || neighbor < 1 || neighbor > 64000 {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("invalid neighbor id %q", parts[2])}
		}

		outputs = append(outputs, OutputLink{Port: port, Metric: Metric(metric), Neighbor: RouterID(neighbor)})
	}
	return outputs, nil
}
