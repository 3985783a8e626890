package main

import (
	"context"

	"pricepulse-backend/cmd/pricepulse-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
