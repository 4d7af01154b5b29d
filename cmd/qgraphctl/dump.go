package main

import (
	"fmt"
	"reflect"

	"github.com/adalundhe/qgraph/demo/arithmetic"
	"github.com/adalundhe/qgraph/engine"
	"github.com/adalundhe/qgraph/persist/sqlitestore"
	"github.com/adalundhe/qgraph/serialize"
	"github.com/spf13/cobra"
)

var (
	dumpN  int
	dumpDB string
	dumpID string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Evaluate Sum(n) and persist the resulting graph to sqlite",
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().IntVarP(&dumpN, "n", "n", 10, "the n in Sum(n)")
	dumpCmd.Flags().StringVar(&dumpDB, "db", "", "sqlite database path (default: config persistence.path)")
	dumpCmd.Flags().StringVar(&dumpID, "id", "", "dump id to save under (default: config persistence.id)")
	rootCmd.AddCommand(dumpCmd)
}

func arithmeticSerializer() *serialize.Serializer {
	s := serialize.New()
	s.AddValueSerializer(
		reflect.TypeOf(arithmetic.Sum{}),
		serialize.JSONQueryCodec[arithmetic.Sum](),
		serialize.JSONValueCodec[int](),
	)
	return s
}

func runDump(cmd *cobra.Command, args []string) error {
	if dumpDB == "" {
		dumpDB = loadedConfig.Persistence.Path
	}
	if dumpID == "" {
		dumpID = loadedConfig.Persistence.ID
	}

	h := arithmetic.NewHandler()
	e, err := engine.NewBuilder().Register(arithmetic.Class(), h).Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer e.Close()

	if _, err := engine.Evaluate[int](cmd.Context(), e, arithmetic.Sum{N: dumpN}); err != nil {
		return fmt.Errorf("evaluate Sum(%d): %w", dumpN, err)
	}

	s := arithmeticSerializer()
	dump, err := s.Dump(e.Graph())
	if err != nil {
		return fmt.Errorf("dump graph: %w", err)
	}

	store, err := sqlitestore.Open(dumpDB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.Save(dumpID, dump); err != nil {
		return fmt.Errorf("save dump: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "saved %d entries to %s under id %q\n", len(dump.Entries), dumpDB, dumpID)
	return nil
}
