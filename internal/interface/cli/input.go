package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var stdin = bufio.NewReader(os.Stdin)

// askLine prints label and reads one line from stdin
func askLine(label string) string {
	fmt.Print(label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirm accepts y/yes and the Portuguese s/sim
func confirm(question string) bool {
	return isYes(askLine(question + " (y/n): "))
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
