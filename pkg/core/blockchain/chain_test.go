package blockchain

import (
	"testing"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// testParams returns consensus parameters with a maximally loose pow_limit
// for every algorithm, so a SHA256Hasher's arbitrary output nearly always
// satisfies CheckProofOfWork and tests never have to actually mine. (The
// compact form of the all-ones limit decodes to 0xffff * 2^240, so about one
// hash in 65536 still fails.)
func testParams() *consensus.Params {
	maxTarget := bigint.BigInt256FromBytes(bytesAllFF())
	params := &consensus.Params{
		PowTargetSpacing:             3600,
		PowTargetTimespan:            1209600,
		FPowAllowMinDifficultyBlocks: true,
		StakeTimestampMask:           15,
	}
	for i := range params.PowLimit {
		params.PowLimit[i] = maxTarget
	}
	return params
}

func bytesAllFF() []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = 0xff
	}
	return b
}

func newTestChain(t *testing.T, hasher consensus.Hasher) *Chain {
	t.Helper()
	store, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := consensus.NewEngine(testParams())
	chain, err := NewChain(store, hasher, engine)
	if err != nil {
		t.Fatalf("failed to create chain: %v", err)
	}
	return chain
}

func TestGenesisBlockCreation(t *testing.T) {
	hasher := consensus.NewSHA256Hasher()
	defer hasher.Close()

	chain := newTestChain(t, hasher)
	miner := types.Hash{0x01}
	now := time.Now()

	genesis, err := chain.InitGenesis(miner, int(types.AlgoPOWSha256), now)
	if err != nil {
		t.Fatalf("InitGenesis failed: %v", err)
	}

	if genesis.Header.Height != 0 {
		t.Errorf("genesis height = %d, want 0", genesis.Header.Height)
	}
	if genesis.Header.PrevBlockHash != types.ZeroHash {
		t.Error("genesis PrevBlockHash should be ZeroHash")
	}

	if len(genesis.Transactions) != 1 {
		t.Fatalf("genesis has %d transactions, want 1", len(genesis.Transactions))
	}
	coinbase := genesis.Transactions[0]
	if coinbase.Type != types.TxTypeCoinbase {
		t.Errorf("genesis tx type = %d, want TxTypeCoinbase", coinbase.Type)
	}
	if coinbase.Amount != types.BlockReward {
		t.Errorf("coinbase amount = %d, want %d", coinbase.Amount, types.BlockReward)
	}
	if coinbase.To != miner {
		t.Error("coinbase recipient should be the miner address")
	}

	if genesis.Hash.IsZero() {
		t.Error("genesis block hash should not be zero")
	}
	if genesis.PowHash.IsZero() {
		t.Error("genesis PoW hash should not be zero")
	}

	if chain.Height() != 0 {
		t.Errorf("chain height = %d, want 0", chain.Height())
	}
	if chain.Tip() != genesis {
		t.Error("chain tip should be the genesis block")
	}
	if chain.TotalSupply() != types.BlockReward {
		t.Errorf("total supply = %d, want %d", chain.TotalSupply(), types.BlockReward)
	}
}

func TestGenesisDoubleInit(t *testing.T) {
	hasher := consensus.NewSHA256Hasher()
	defer hasher.Close()

	chain := newTestChain(t, hasher)
	miner := types.Hash{0x01}

	_, err := chain.InitGenesis(miner, int(types.AlgoPOWSha256), time.Now())
	if err != nil {
		t.Fatalf("first InitGenesis failed: %v", err)
	}

	_, err = chain.InitGenesis(miner, int(types.AlgoPOWSha256), time.Now())
	if err != ErrChainAlreadyInitialized {
		t.Errorf("second InitGenesis error = %v, want ErrChainAlreadyInitialized", err)
	}
}

func TestBlockRewardConstant(t *testing.T) {
	heights := []uint64{0, 1, 100, 1_000_000, 8_760}
	for _, h := range heights {
		reward := BlockReward(h)
		if reward != types.BlockReward {
			t.Errorf("BlockReward(%d) = %d, want %d", h, reward, types.BlockReward)
		}
	}
}

func TestTotalSupplyAtHeight(t *testing.T) {
	tests := []struct {
		height uint64
		want   types.Amount
	}{
		{0, types.BlockReward},
		{23, types.Amount(24 * uint64(types.BlockReward))},
		{8759, types.Amount(8760 * uint64(types.BlockReward))},
	}
	for _, tt := range tests {
		got := TotalSupplyAtHeight(tt.height)
		if got != tt.want {
			t.Errorf("TotalSupplyAtHeight(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}

func TestCoinbaseMaturity(t *testing.T) {
	tests := []struct {
		outputHeight  uint64
		currentHeight uint64
		want          bool
	}{
		{0, 0, false},
		{0, 23, false},
		{0, 24, true},
		{0, 25, true},
		{10, 33, false},
		{10, 34, true},
		{100, 123, false},
		{100, 124, true},
	}
	for _, tt := range tests {
		got := IsMature(tt.outputHeight, tt.currentHeight)
		if got != tt.want {
			t.Errorf("IsMature(%d, %d) = %v, want %v", tt.outputHeight, tt.currentHeight, got, tt.want)
		}
	}
}

func TestSpendableBalance(t *testing.T) {
	utxos := []UTXO{
		{BlockHeight: 0, Amount: types.BlockReward},
		{BlockHeight: 10, Amount: types.BlockReward},
		{BlockHeight: 20, Amount: types.BlockReward},
		{BlockHeight: 30, Amount: types.BlockReward},
	}

	tests := []struct {
		currentHeight uint64
		want          types.Amount
	}{
		{23, 0},
		{24, types.BlockReward},
		{34, types.Amount(2 * uint64(types.BlockReward))},
		{44, types.Amount(3 * uint64(types.BlockReward))},
		{54, types.Amount(4 * uint64(types.BlockReward))},
	}
	for _, tt := range tests {
		got := SpendableBalance(utxos, tt.currentHeight)
		if got != tt.want {
			t.Errorf("SpendableBalance at height %d = %d, want %d", tt.currentHeight, got, tt.want)
		}
	}
}

func TestValidateBlock_InvalidPrevHash(t *testing.T) {
	hasher := consensus.NewSHA256Hasher()
	defer hasher.Close()

	chain := newTestChain(t, hasher)
	miner := types.Hash{0x01}
	genesis, _ := chain.InitGenesis(miner, int(types.AlgoPOWSha256), time.Now())

	block := buildTestBlock(t, chain, hasher, genesis, miner, types.Hash{0xFF})
	err := chain.AddBlock(block)
	if err != ErrInvalidPrevHash {
		t.Errorf("expected ErrInvalidPrevHash, got: %v", err)
	}
}

func TestValidateBlock_InvalidHeight(t *testing.T) {
	hasher := consensus.NewSHA256Hasher()
	defer hasher.Close()

	chain := newTestChain(t, hasher)
	miner := types.Hash{0x01}
	genesis, _ := chain.InitGenesis(miner, int(types.AlgoPOWSha256), time.Now())

	block := buildTestBlock(t, chain, hasher, genesis, miner, genesis.Hash)
	block.Header.Height = 5
	block.Hash = block.ComputeHash()
	powHash, _ := hasher.Hash(block.Header.Serialize())
	block.PowHash = powHash

	err := chain.AddBlock(block)
	if err != ErrInvalidHeight {
		t.Errorf("expected ErrInvalidHeight, got: %v", err)
	}
}

func TestValidateBlock_TimestampBeforeParent(t *testing.T) {
	hasher := consensus.NewSHA256Hasher()
	defer hasher.Close()

	chain := newTestChain(t, hasher)
	miner := types.Hash{0x01}
	now := time.Now()
	genesis, _ := chain.InitGenesis(miner, int(types.AlgoPOWSha256), now)

	block := buildTestBlock(t, chain, hasher, genesis, miner, genesis.Hash)
	block.Header.Timestamp = now.Add(-1 * time.Hour)
	block.Header.MerkleRoot = types.ComputeMerkleRoot(block.Transactions)
	block.Hash = block.ComputeHash()
	powHash, _ := hasher.Hash(block.Header.Serialize())
	block.PowHash = powHash

	err := chain.AddBlock(block)
	if err != ErrTimestampTooOld {
		t.Errorf("expected ErrTimestampTooOld, got: %v", err)
	}
}

func TestValidateBlock_InvalidCoinbaseAmount(t *testing.T) {
	hasher := consensus.NewSHA256Hasher()
	defer hasher.Close()

	chain := newTestChain(t, hasher)
	miner := types.Hash{0x01}
	genesis, _ := chain.InitGenesis(miner, int(types.AlgoPOWSha256), time.Now())

	coinbase := &types.Transaction{
		Type:      types.TxTypeCoinbase,
		Timestamp: time.Now(),
		From:      types.ZeroHash,
		To:        miner,
		Amount:    types.Amount(2 * uint64(types.BlockReward)),
		Nonce:     1,
	}
	coinbase.ID = coinbase.ComputeID()

	header := types.BlockHeader{
		Version:       types.EncodeVersion(1, int(types.AlgoPOWSha256)),
		Height:        1,
		Timestamp:     time.Now().Add(1 * time.Hour),
		PrevBlockHash: genesis.Hash,
		MerkleRoot:    types.ComputeMerkleRoot([]*types.Transaction{coinbase}),
		Nonce:         0,
	}
	header.Bits = chain.Engine().NextWorkRequired(chain.TipIndex(), &header)

	block := &types.Block{
		Header:       header,
		Transactions: []*types.Transaction{coinbase},
	}
	block.Hash = block.ComputeHash()
	powHash, _ := hasher.Hash(block.Header.Serialize())
	block.PowHash = powHash

	err := chain.AddBlock(block)
	if err != ErrInvalidCoinbaseAmt {
		t.Errorf("expected ErrInvalidCoinbaseAmt, got: %v", err)
	}
}

// buildTestBlock creates a valid test block following the given parent,
// with Bits set to whatever the chain's engine currently requires.
func buildTestBlock(t *testing.T, chain *Chain, hasher consensus.Hasher, parent *types.Block, miner types.Hash, prevHash types.Hash) *types.Block {
	t.Helper()
	height := parent.Header.Height + 1

	coinbase := &types.Transaction{
		Type:      types.TxTypeCoinbase,
		Timestamp: time.Now(),
		From:      types.ZeroHash,
		To:        miner,
		Amount:    types.BlockReward,
		Nonce:     height,
	}
	coinbase.ID = coinbase.ComputeID()

	txs := []*types.Transaction{coinbase}

	header := types.BlockHeader{
		Version:       types.EncodeVersion(1, int(types.AlgoPOWSha256)),
		Height:        height,
		Timestamp:     parent.Header.Timestamp.Add(1 * time.Hour),
		PrevBlockHash: prevHash,
		MerkleRoot:    types.ComputeMerkleRoot(txs),
		Nonce:         0,
	}
	header.Bits = chain.Engine().NextWorkRequired(chain.TipIndex(), &header)

	block := &types.Block{
		Header:       header,
		Transactions: txs,
	}
	block.Hash = block.ComputeHash()
	powHash, err := hasher.Hash(block.Header.Serialize())
	if err != nil {
		t.Fatalf("hasher error: %v", err)
	}
	block.PowHash = powHash
	return block
}
