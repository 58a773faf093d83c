// Command helpdesk answers student questions from indexed university
// documents and drafts escalation emails.
package main

import (
	"os"

	"github.com/compozy/helpdesk/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
