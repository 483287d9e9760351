package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// yesConfirm skips the interactive prompt of destructive commands.
var yesConfirm bool

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(what string) bool {
	if yesConfirm {
		fmt.Println("Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("About to %s. Type 'yes' to confirm: ", what)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
