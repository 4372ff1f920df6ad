package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

var inspectEncoding string

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Short:   "Print the fields of a PHYPayload as JSON (for debugging)",
	Example: `chirpstack-uplink-decoder inspect 40040302018002010aaabb01020304`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Fatalf("encoded PHYPayload must be given as an argument")
		}

		enc, err := uplink.ParseEncoding(inspectEncoding)
		if err != nil {
			log.WithError(err).Fatal("parse encoding error")
		}

		s := uplink.NewService(nil, nil)
		info, err := s.Inspect(context.Background(), enc, uplink.InspectRequest{Payload: args[0]})
		if err != nil {
			log.WithError(err).Fatal("inspect frame error")
		}

		b, err := json.MarshalIndent(info, "", "    ")
		if err != nil {
			log.WithError(err).Fatal("json marshal error")
		}

		fmt.Println(string(b))
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectEncoding, "encoding", "e", "hex", "payload encoding (hex or base64)")
}
