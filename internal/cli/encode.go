package cli

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/encoder"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var encodeJSON bool

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().BoolVar(&encodeJSON, "json", false, "Print a JSON record per script instead of raw payloads")
}

var encodeCmd = &cobra.Command{
	Use:   "encode <glob>...",
	Short: "Encode scripts and print their payloads",
	Long:  "Loads every script matching the globs (.user.js, .yaml or .toml manifests) and prints the payload\nthe host page would receive. Already encoded scripts are printed unchanged.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEncode,
}

// encodeRecord is the JSON shape of one encoded script
type encodeRecord struct {
	Script  string   `json:"script"`
	Encoded bool     `json:"encoded"`
	Payload string   `json:"payload"`
	Token   string   `json:"token,omitempty"`
	Stages  []string `json:"stages"`
	Shimmed []string `json:"shimmed"`
	Stubbed []string `json:"stubbed"`
}

func runEncode(cmd *cobra.Command, args []string) error {
	scripts, err := loadScripts(args)
	if err != nil {
		return err
	}

	enc := newEncoder()
	records := make([]encodeRecord, 0, len(scripts))
	for _, s := range scripts {
		record := encodeRecord{
			Script:  s.Label(),
			Payload: s.Code,
			Stages:  []string{},
			Shimmed: []string{},
			Stubbed: []string{},
		}
		if res, ok := enc.EncodeDetailed(s); ok {
			record.Encoded = true
			record.Payload = res.Payload
			record.Token = res.Token
			record.Stages = stageNames(res.Stages)
			record.Shimmed = append(record.Shimmed, res.Shimmed...)
			record.Stubbed = append(record.Stubbed, res.Stubbed...)
		}
		records = append(records, record)
	}

	out := cmd.OutOrStdout()
	if encodeJSON {
		data, err := sonic.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal payloads: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for _, record := range records {
		fmt.Fprintln(out, record.Payload)
	}
	return nil
}

func stageNames(stages []encoder.Stage) []string {
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = string(stage)
	}
	return names
}
