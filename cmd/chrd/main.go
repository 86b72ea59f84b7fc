package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/chronodrachma/chrd/pkg/config"
	"github.com/chronodrachma/chrd/pkg/core/blockchain"
	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
	"github.com/chronodrachma/chrd/pkg/miner"
	"github.com/chronodrachma/chrd/pkg/p2p"
	"github.com/chronodrachma/chrd/pkg/rpc"
)

func main() {
	maxprocs.Set(maxprocs.Logger(log.Printf))

	if len(os.Args) < 2 {
		fmt.Println("Usage: chrd [run|mine|checkpow] <args>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd := flag.NewFlagSet("run", flag.ExitOnError)
		configPath := runCmd.String("config", "", "path to YAML config file")
		nodeAddr := runCmd.String("addr", "", "P2P listen address override")
		seedNode := runCmd.String("seed", "", "seed node address to connect to")
		rpcAddr := runCmd.String("rpc", "", "RPC listen address override")
		runCmd.Parse(os.Args[2:])
		startNode(*configPath, *nodeAddr, *seedNode, *rpcAddr, false, types.Hash{}, int(types.AlgoPOWSha256))

	case "mine":
		mineCmd := flag.NewFlagSet("mine", flag.ExitOnError)
		configPath := mineCmd.String("config", "", "path to YAML config file")
		minerNodeAddr := mineCmd.String("addr", "", "P2P listen address override")
		minerSeedNode := mineCmd.String("seed", "", "seed node address to connect to")
		minerRpcAddr := mineCmd.String("rpc", "", "RPC listen address override")
		minerRewardAddr := mineCmd.String("miner-addr", "", "address to receive mining rewards (hex)")
		minerAlgo := mineCmd.Int("algo", int(types.AlgoPOWSha256), "mining algorithm: 1=sha256, 2=scrypt")
		mineCmd.Parse(os.Args[2:])
		if *minerRewardAddr == "" {
			fmt.Println("Error: --miner-addr is required for mining")
			os.Exit(1)
		}
		addrHash, err := types.HashFromHex(*minerRewardAddr)
		if err != nil {
			log.Fatalf("Invalid miner address: %v", err)
		}
		startNode(*configPath, *minerNodeAddr, *minerSeedNode, *minerRpcAddr, true, addrHash, *minerAlgo)

	case "checkpow":
		checkpow(os.Args[2:])

	default:
		fmt.Println("Unknown command:", os.Args[1])
		os.Exit(1)
	}
}

// checkpow verifies a single (hash, bits, algo) triple against a config's
// consensus parameters, without needing a running node: chrd checkpow
// <hash-hex> <bits-hex> <algo>
func checkpow(args []string) {
	cmd := flag.NewFlagSet("checkpow", flag.ExitOnError)
	configPath := cmd.String("config", "", "path to YAML config file")
	cmd.Parse(args)

	rest := cmd.Args()
	if len(rest) != 3 {
		fmt.Println("Usage: chrd checkpow <hash-hex> <bits-hex> <algo>")
		os.Exit(1)
	}

	hash, err := types.HashFromHex(rest[0])
	if err != nil {
		log.Fatalf("invalid hash: %v", err)
	}
	bits64, err := strconv.ParseUint(rest[1], 16, 32)
	if err != nil {
		log.Fatalf("invalid bits: %v", err)
	}
	algo, err := strconv.Atoi(rest[2])
	if err != nil {
		log.Fatalf("invalid algo: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	params, err := cfg.ConsensusParams()
	if err != nil {
		log.Fatalf("failed to build consensus params: %v", err)
	}

	ok := consensus.CheckProofOfWork(hash.ToChainHash(), uint32(bits64), algo, params)
	fmt.Printf("valid=%v\n", ok)
	if !ok {
		os.Exit(1)
	}
}

func startNode(configPath, listenAddr, seedAddr, rpcAddr string, isMiner bool, minerAddr types.Hash, algo int) {
	log.Printf("Starting Chronodrachma Node (Testnet)...")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if listenAddr != "" {
		cfg.Network.ListenAddr = listenAddr
	}
	if rpcAddr != "" {
		cfg.Network.RPCAddr = rpcAddr
	}

	params, err := cfg.ConsensusParams()
	if err != nil {
		log.Fatalf("Failed to build consensus params: %v", err)
	}
	engine := consensus.NewEngine(params)

	// NewHasher resolves to RandomX under -tags randomx, SHA256 otherwise.
	hasher, err := consensus.NewHasher([]byte(cfg.Network.Name), isMiner)
	if err != nil {
		log.Fatalf("Failed to initialize hasher: %v", err)
	}
	logrus.WithField("miner", isMiner).Info("hasher initialized")

	store, err := blockchain.NewBadgerStore("")
	if err != nil {
		log.Fatalf("Failed to open block store: %v", err)
	}

	chain, err := blockchain.NewChain(store, hasher, engine)
	if err != nil {
		log.Fatalf("Failed to create chain: %v", err)
	}

	minerAddrForGenesis := config.GenesisMinerAddress
	_, err = chain.InitGenesis(minerAddrForGenesis, int(types.AlgoPOWSha256), cfg.Network.GenesisTimestamp)
	if err != nil && err != blockchain.ErrChainAlreadyInitialized {
		log.Fatalf("Failed to init genesis: %v", err)
	}

	mp := mempool.NewMempool(chain)

	seeds := append([]string{}, cfg.Network.SeedNodes...)
	if seedAddr != "" {
		seeds = append(seeds, seedAddr)
	}

	p2pConfig := p2p.ServerConfig{
		ListenAddr: cfg.Network.ListenAddr,
		SeedNodes:  seeds,
	}
	server := p2p.NewServer(p2pConfig, chain, mp)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start P2P server: %v", err)
	}

	rpcServer := rpc.NewServer(chain, mp, server)
	go func() {
		if err := rpcServer.Start(cfg.Network.RPCAddr); err != nil {
			logrus.WithError(err).Error("RPC server stopped")
		}
	}()

	if isMiner {
		m := miner.NewMiner(chain, hasher, server, mp, minerAddr, algo)
		m.Start()
		defer m.Stop()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down...")
}
