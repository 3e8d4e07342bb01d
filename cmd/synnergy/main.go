package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/synnergy-spiral/spiralchain/core"
	"github.com/synnergy-spiral/spiralchain/pkg/config"
	"github.com/synnergy-spiral/spiralchain/rpc"
)

// Exit codes follow the operator interface's classification of a failure:
// 0 success, 1 user error (bad flags/arguments), 2 state error (core.ErrState),
// 3 I/O error, 4 consensus rule violation. A bare error not otherwise
// classified falls back to 1.
const (
	exitOK            = 0
	exitUsage         = 1
	exitState         = 2
	exitIO            = 3
	exitConsensusRule = 4
)

var (
	logger    = logrus.StandardLogger()
	loadOnce  sync.Once
	loadedCfg *config.Config
)

func loadEnv(cmd *cobra.Command, _ []string) error {
	var err error
	loadOnce.Do(func() {
		_ = godotenv.Load()
		loadedCfg, err = config.LoadFromEnv()
		if err != nil {
			return
		}
		lvl, parseErr := logrus.ParseLevel(loadedCfg.Logging.Level)
		if parseErr != nil {
			lvl = logrus.InfoLevel
		}
		logger.SetLevel(lvl)
	})
	return err
}

func main() {
	root := &cobra.Command{Use: "spiralchain", PersistentPreRunE: loadEnv}
	root.AddCommand(nodeCmd())
	root.AddCommand(walletCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case core.IsKind(err, core.ErrState):
		return exitState
	case core.IsKind(err, core.ErrConsensusRule):
		return exitConsensusRule
	case core.IsKind(err, core.ErrStructural), core.IsKind(err, core.ErrCryptographic):
		return exitUsage
	case core.IsKind(err, core.ErrTransient), core.IsKind(err, core.ErrFatal):
		return exitIO
	default:
		return exitUsage
	}
}

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "node"}
	cmd.AddCommand(nodeStartCmd())
	return cmd
}

func nodeStartCmd() *cobra.Command {
	var genesisTimestampMS uint64
	var allocationFile string
	start := &cobra.Command{
		Use:   "start",
		Short: "boot a node from genesis and serve the operator HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			network := loadedCfg.Network.ID
			slotDurationMS := uint64(loadedCfg.Consensus.SlotDurationMS)
			if genesisTimestampMS == 0 {
				genesisTimestampMS = 1_700_000_000_000
			}

			allocation, err := loadAllocation(allocationFile)
			if err != nil {
				return err
			}

			node := core.InitNode(core.GenesisParams{TimestampMS: genesisTimestampMS, Allocation: allocation}, network, slotDurationMS)
			server := rpc.NewServer(node)

			listenAddr := loadedCfg.Network.ListenAddr
			if listenAddr == "" {
				listenAddr = "127.0.0.1:8080"
			}
			logger.WithFields(logrus.Fields{"network": network, "listen_addr": listenAddr}).Info("node listening")
			return http.ListenAndServe(listenAddr, server.Router())
		},
	}
	start.Flags().Uint64Var(&genesisTimestampMS, "genesis-timestamp-ms", 0, "override the genesis timestamp (defaults to a fixed testnet value)")
	start.Flags().StringVar(&allocationFile, "allocation-file", "", "YAML file mapping address (hex) to an initial QBT balance")
	return start
}

// loadAllocation reads a YAML document of the form:
//
//	0xabc...: 1000
//	0xdef...: 500
//
// into the genesis allocation map. An empty path yields no allocation.
func loadAllocation(path string) (map[core.Address]core.Amount, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]uint64
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, core.WrapStructural("malformed allocation file: " + err.Error())
	}
	allocation := make(map[core.Address]core.Amount, len(raw))
	for addrHex, qbt := range raw {
		addr, err := core.AddressFromHexString(addrHex)
		if err != nil {
			return nil, err
		}
		allocation[addr] = core.NewAmountQBT(qbt)
	}
	return allocation, nil
}

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "wallet"}
	cmd.AddCommand(walletCreateCmd())
	return cmd
}

func walletCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "generate a fresh post-quantum keypair and the address it derives",
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, pk, err := core.GenerateSigningKey()
			if err != nil {
				return err
			}
			pubBytes := pk.PublicKeyBytes()
			addr := core.AddressFromPublicKey(pubBytes)
			fmt.Fprintf(cmd.OutOrStdout(), "address:     %s\n", addr)
			fmt.Fprintf(cmd.OutOrStdout(), "public_key:  %x\n", pubBytes)
			fmt.Fprintf(cmd.OutOrStdout(), "private_key: %x\n", sk.PrivateKeyBytes())
			return nil
		},
	}
}
