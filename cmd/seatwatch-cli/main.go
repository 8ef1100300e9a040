package main

import (
	"context"

	"seatwatch-backend/cmd/seatwatch-cli/commands"
	"seatwatch-backend/lib/serviceutil"
	"seatwatch-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "seatwatch-cli")
	serviceutil.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
