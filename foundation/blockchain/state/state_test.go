package state_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/database/storage/memory"
	"github.com/basicnode/ledger/foundation/blockchain/genesis"
	"github.com/basicnode/ledger/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeWorker records the signals the state sends.
type fakeWorker struct {
	mu      sync.Mutex
	cancels int
	starts  int
	shared  []database.Tx
}

func (w *fakeWorker) Shutdown() {}
func (w *fakeWorker) Sync() {}
func (w *fakeWorker) SignalPeersChanged() {}

func (w *fakeWorker) SignalStartMining() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.starts++
}

func (w *fakeWorker) SignalCancelMining() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancels++
}

func (w *fakeWorker) SignalShareTx(tx database.Tx) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shared = append(w.shared, tx)
}

func (w *fakeWorker) cancelCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancels
}

// =============================================================================

func testGenesis() genesis.Genesis {
	gen := genesis.Default()
	gen.Difficulty = 2
	return gen
}

func newState(t *testing.T, gen genesis.Genesis, strg database.Storage) (*state.State, *fakeWorker) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a node key: %v", failed, err)
	}

	if strg == nil {
		strg = memory.New()
	}

	st, err := state.New(context.Background(), state.Config{
		Genesis: gen,
		Storage: strg,
		Host:    "localhost:9080",
		NodeKey: key,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	w := fakeWorker{}
	st.Worker = &w

	return st, &w
}

// extend appends one block per transaction to the state.
func extend(t *testing.T, st *state.State, trans ...database.Tx) {
	for _, tx := range trans {
		if _, err := st.Append(context.Background(), []database.Tx{tx}); err != nil {
			t.Fatalf("\t%s\tShould be able to append a block: %v", failed, err)
		}
	}
}

// chainOf returns the chain held by the state.
func chainOf(t *testing.T, st *state.State) database.Chain {
	chain, err := st.RetrieveChain()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to retrieve the chain: %v", failed, err)
	}
	return chain
}

func tx(sender string, amount uint64) database.Tx {
	return database.NewTx(sender, "Bob", amount)
}

// =============================================================================

func Test_LongestChain(t *testing.T) {
	gen := testGenesis()

	type table struct {
		name    string
		blocks  int
		outcome state.Outcome
		err     error
	}

	tt := []table{
		{name: "longer", blocks: 4, outcome: state.Adopted},
		{name: "shorter", blocks: 1, outcome: state.Rejected, err: state.ErrChainNotLonger},
		{name: "tie", blocks: 2, outcome: state.Rejected, err: state.ErrChainNotLonger},
	}

	t.Log("Given a local chain of 3 blocks.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen receiving a %s chain of %d blocks.", testID, tst.name, tst.blocks+1)
				{
					local, w := newState(t, gen, nil)
					extend(t, local, tx("Alice", 1), tx("Alice", 2))
					before := chainOf(t, local)

					remote, _ := newState(t, gen, nil)
					for i := 0; i < tst.blocks; i++ {
						extend(t, remote, tx("Carol", uint64(i+1)))
					}
					candidate := chainOf(t, remote)

					outcome, err := local.ReceiveRemoteChain(candidate)
					if outcome != tst.outcome {
						t.Fatalf("\t%s\tTest %d:\tShould get outcome %s, got %s: %v", failed, testID, tst.outcome, outcome, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get outcome %s.", success, testID, tst.outcome)

					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get error %v, got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get error %v.", success, testID, tst.err)

					exp := before
					if tst.outcome == state.Adopted {
						exp = candidate
					}

					after := chainOf(t, local)
					if len(after) != len(exp) || after[len(after)-1].Hash != exp[len(exp)-1].Hash {
						t.Fatalf("\t%s\tTest %d:\tShould hold the expected chain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould hold the expected chain.", success, testID)

					if tst.outcome == state.Adopted && w.cancelCount() == 0 {
						t.Fatalf("\t%s\tTest %d:\tShould signal mining to cancel.", failed, testID)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_RejectCandidate(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to reject bad candidate chains.")
	{
		t.Logf("\tTest 0:\tWhen a longer candidate has a broken link.")
		{
			local, _ := newState(t, gen, nil)
			extend(t, local, tx("Alice", 1))

			remote, _ := newState(t, gen, nil)
			extend(t, remote, tx("Carol", 1), tx("Carol", 2), tx("Carol", 3))
			candidate := chainOf(t, remote)

			forged, err := database.NewBlock(context.Background(), database.NewBlockArgs{
				Index:         2,
				Trans:         candidate[2].Trans(),
				PrevBlockHash: candidate[3].Hash,
				Difficulty:    gen.Difficulty,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a forged block: %v", failed, err)
			}
			candidate[2] = forged

			outcome, err := local.ReceiveRemoteChain(candidate)
			if outcome != state.Rejected || !errors.Is(err, database.ErrInvalidLinkage) {
				t.Fatalf("\t%s\tTest 0:\tShould reject with ErrInvalidLinkage: %s: %v", failed, outcome, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject with ErrInvalidLinkage.", success)

			if local.QueryChainLength() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the local chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the local chain.", success)
		}

		t.Logf("\tTest 1:\tWhen a longer candidate comes from another genesis.")
		{
			local, _ := newState(t, gen, nil)

			other := gen
			other.Date = gen.Date.Add(time.Hour)

			remote, _ := newState(t, other, nil)
			extend(t, remote, tx("Carol", 1), tx("Carol", 2))

			outcome, err := local.ReceiveRemoteChain(chainOf(t, remote))
			if outcome != state.Rejected || !errors.Is(err, state.ErrGenesisMismatch) {
				t.Fatalf("\t%s\tTest 1:\tShould reject with ErrGenesisMismatch: %s: %v", failed, outcome, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject with ErrGenesisMismatch.", success)
		}

		t.Logf("\tTest 2:\tWhen the candidate is empty.")
		{
			local, _ := newState(t, gen, nil)

			outcome, err := local.ReceiveRemoteChain(nil)
			if outcome != state.Rejected || !errors.Is(err, database.ErrMalformedCandidate) {
				t.Fatalf("\t%s\tTest 2:\tShould reject with ErrMalformedCandidate: %s: %v", failed, outcome, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject with ErrMalformedCandidate.", success)

			if local.RetrieveHalted() != nil {
				t.Fatalf("\t%s\tTest 2:\tShould not halt the chain.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not halt the chain.", success)
		}
	}
}

func Test_OrphanedTransactions(t *testing.T) {
	gen := testGenesis()

	t.Log("Given a local chain that loses to a longer fork.")
	{
		t.Logf("\tTest 0:\tWhen the local blocks hold transactions the fork doesn't.")
		{
			shared := tx("Alice", 1)
			mineOnly := tx("Alice", 2)
			both := tx("Dave", 7)
			pending := tx("Eve", 9)

			local, _ := newState(t, gen, nil)
			extend(t, local, shared)

			remote, _ := newState(t, gen, nil)
			if _, err := remote.ReceiveRemoteChain(chainOf(t, local)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to copy the chain: %v", failed, err)
			}

			extend(t, local, mineOnly, both)
			extend(t, remote, both, tx("Carol", 3), tx("Carol", 4))

			local.SubmitNodeTransaction(pending)
			local.SubmitNodeTransaction(tx("Carol", 3))

			outcome, err := local.ReceiveRemoteChain(chainOf(t, remote))
			if outcome != state.Adopted {
				t.Fatalf("\t%s\tTest 0:\tShould adopt the fork: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould adopt the fork.", success)

			exp := []database.Tx{mineOnly, pending}
			got := local.RetrieveMempool()
			if len(got) != len(exp) || got[0] != exp[0] || got[1] != exp[1] {
				t.Logf("\t%s\tTest 0:\tgot: %v", failed, got)
				t.Logf("\t%s\tTest 0:\texp: %v", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould requeue only the orphaned transactions.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould requeue only the orphaned transactions.", success)
		}
	}
}

func Test_ProposedBlock(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to accept blocks from peers.")
	{
		local, _ := newState(t, gen, nil)
		remote, _ := newState(t, gen, nil)

		extend(t, remote, tx("Carol", 1), tx("Carol", 2), tx("Carol", 3))
		candidate := chainOf(t, remote)

		t.Logf("\tTest 0:\tWhen the block is the next block.")
		{
			local.SubmitNodeTransaction(tx("Carol", 1))

			if err := local.ProcessProposedBlock(candidate[1]); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the block.", success)

			if local.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould remove the mined transaction from the mempool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould remove the mined transaction from the mempool.", success)
		}

		t.Logf("\tTest 1:\tWhen the block was already accepted.")
		{
			if err := local.ProcessProposedBlock(candidate[1]); !errors.Is(err, state.ErrBlockNotNext) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrBlockNotNext: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get ErrBlockNotNext.", success)
		}

		t.Logf("\tTest 2:\tWhen the block skips ahead.")
		{
			if err := local.ProcessProposedBlock(candidate[3]); !errors.Is(err, state.ErrChainForked) {
				t.Fatalf("\t%s\tTest 2:\tShould get ErrChainForked: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get ErrChainForked.", success)
		}

		t.Logf("\tTest 3:\tWhen the block was mined on another parent.")
		{
			other, _ := newState(t, gen, nil)
			extend(t, other, tx("Dave", 1), tx("Dave", 2))

			if err := local.ProcessProposedBlock(chainOf(t, other)[2]); !errors.Is(err, state.ErrChainForked) {
				t.Fatalf("\t%s\tTest 3:\tShould get ErrChainForked: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould get ErrChainForked.", success)
		}

		t.Logf("\tTest 4:\tWhen the block content was changed.")
		{
			bd := database.NewBlockData(candidate[2])
			bd.Trans[0].Amount = 500

			tampered, err := database.ToBlock(bd)
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to convert the block: %v", failed, err)
			}

			if err := local.ProcessProposedBlock(tampered); !errors.Is(err, database.ErrInvalidLinkage) {
				t.Fatalf("\t%s\tTest 4:\tShould get ErrInvalidLinkage: %v", failed, err)
			}
			t.Logf("\t%s\tTest 4:\tShould get ErrInvalidLinkage.", success)

			if local.QueryChainLength() != 2 {
				t.Fatalf("\t%s\tTest 4:\tShould keep the chain at 2 blocks.", failed)
			}
			t.Logf("\t%s\tTest 4:\tShould keep the chain at 2 blocks.", success)
		}
	}
}

func Test_MineNewBlock(t *testing.T) {
	gen := testGenesis()
	gen.TransPerBlock = 2

	t.Log("Given the need to mine the mempool.")
	{
		t.Logf("\tTest 0:\tWhen the mempool is empty.")
		{
			st, _ := newState(t, gen, nil)

			if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 0:\tShould get ErrNoTransactions: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get ErrNoTransactions.", success)
		}

		t.Logf("\tTest 1:\tWhen the mempool has more than a block holds.")
		{
			st, w := newState(t, gen, nil)

			first, second, third := tx("Alice", 1), tx("Alice", 2), tx("Alice", 3)
			st.SubmitTransaction(first)
			st.SubmitTransaction(second)
			st.SubmitTransaction(third)

			if len(w.shared) != 3 || w.starts != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould share and signal mining for every transaction.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould share and signal mining for every transaction.", success)

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine: %v", failed, err)
			}

			trans := block.Trans()
			if len(trans) != 2 || trans[0] != first || trans[1] != second {
				t.Fatalf("\t%s\tTest 1:\tShould mine the oldest transactions: %v", failed, trans)
			}
			t.Logf("\t%s\tTest 1:\tShould mine the oldest transactions.", success)

			pool := st.RetrieveMempool()
			if len(pool) != 1 || pool[0] != third {
				t.Fatalf("\t%s\tTest 1:\tShould leave the rest in the mempool: %v", failed, pool)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the rest in the mempool.", success)

			if err := st.QueryValidateChain(); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould have a valid chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould have a valid chain.", success)
		}

		t.Logf("\tTest 2:\tWhen the mining is cancelled.")
		{
			hard := testGenesis()
			hard.GenesisPOW = false
			hard.Difficulty = 64

			st, _ := newState(t, hard, nil)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			if _, err := st.Append(ctx, []database.Tx{tx("Alice", 1)}); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest 2:\tShould get a deadline error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get a deadline error.", success)

			if st.QueryChainLength() != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould not change the chain.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not change the chain.", success)
		}
	}
}

func Test_QueryBlocks(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to query blocks by number.")
	{
		st, _ := newState(t, gen, nil)
		extend(t, st, tx("Alice", 1), tx("Alice", 2), tx("Alice", 3))

		type table struct {
			name string
			from uint64
			to   uint64
			exp  []uint32
		}

		tt := []table{
			{name: "range", from: 1, to: 2, exp: []uint32{1, 2}},
			{name: "latest", from: state.QueryLatest, to: state.QueryLatest, exp: []uint32{3}},
			{name: "to-latest", from: 2, to: state.QueryLatest, exp: []uint32{2, 3}},
			{name: "past-end", from: 0, to: 99, exp: []uint32{0, 1, 2, 3}},
		}

		for testID, tst := range tt {
			f := func(t *testing.T) {
				blocks, err := st.QueryBlocksByNumber(tst.from, tst.to)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to query: %v", failed, testID, err)
				}

				if len(blocks) != len(tst.exp) {
					t.Fatalf("\t%s\tTest %d:\tShould get %d blocks, got %d.", failed, testID, len(tst.exp), len(blocks))
				}

				for i, block := range blocks {
					if block.Index != tst.exp[i] {
						t.Fatalf("\t%s\tTest %d:\tShould get block %d, got %d.", failed, testID, tst.exp[i], block.Index)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould get blocks %v.", success, testID, tst.exp)
			}

			t.Run(tst.name, f)
		}

		if _, err := st.QueryBlocksByNumber(3, 1); err == nil {
			t.Fatalf("\t%s\tShould fail when from is past to.", failed)
		}
	}
}

// =============================================================================

// failingStorage fails every write once fail is set.
type failingStorage struct {
	*memory.Memory
	mu   sync.Mutex
	fail bool
}

func (fs *failingStorage) Write(blockData database.BlockData) error {
	fs.mu.Lock()
	fail := fs.fail
	fs.mu.Unlock()

	if fail {
		return errors.New("disk on fire")
	}
	return fs.Memory.Write(blockData)
}

func (fs *failingStorage) setFail() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fail = true
}

func Test_Halt(t *testing.T) {
	gen := testGenesis()

	t.Log("Given a storage that loses the chain during a replace.")
	{
		t.Logf("\tTest 0:\tWhen the chain can't be restored.")
		{
			strg := failingStorage{Memory: memory.New()}

			local, _ := newState(t, gen, &strg)

			remote, _ := newState(t, gen, nil)
			extend(t, remote, tx("Carol", 1))

			strg.setFail()

			_, err := local.ReceiveRemoteChain(chainOf(t, remote))
			if !errors.Is(err, state.ErrHalted) || !errors.Is(err, database.ErrEmptyChain) {
				t.Fatalf("\t%s\tTest 0:\tShould halt with ErrEmptyChain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould halt with ErrEmptyChain.", success)

			if _, err := local.Append(context.Background(), nil); !errors.Is(err, state.ErrHalted) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to append: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to append.", success)

			if local.RetrieveHalted() == nil {
				t.Fatalf("\t%s\tTest 0:\tShould report the halt.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report the halt.", success)
		}
	}
}

func Test_AppendDuringAdoption(t *testing.T) {
	gen := testGenesis()

	t.Log("Given a node mining a block while a longer chain arrives.")
	{
		t.Logf("\tTest 0:\tWhen the chain is replaced before the block is written.")
		{
			remote, _ := newState(t, gen, nil)
			extend(t, remote, tx("Alice", 1), tx("Alice", 2))
			remoteChain := chainOf(t, remote)

			key, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a node key: %v", failed, err)
			}

			var local *state.State
			var once sync.Once
			var outcome state.Outcome
			var adoptErr error

			ev := func(v string, args ...any) {
				if !strings.HasPrefix(v, "state: Append: MINING: perform POW") {
					return
				}
				once.Do(func() {
					outcome, adoptErr = local.ReceiveRemoteChain(remoteChain)
				})
			}

			local, err = state.New(context.Background(), state.Config{
				Genesis:   gen,
				Storage:   memory.New(),
				Host:      "localhost:9080",
				NodeKey:   key,
				EvHandler: ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the state: %v", failed, err)
			}
			w := fakeWorker{}
			local.Worker = &w

			_, err = local.Append(context.Background(), []database.Tx{tx("Carol", 9)})

			if adoptErr != nil || outcome != state.Adopted {
				t.Fatalf("\t%s\tTest 0:\tShould adopt the remote chain: %s: %v", failed, outcome, adoptErr)
			}
			t.Logf("\t%s\tTest 0:\tShould adopt the remote chain.", success)

			if !errors.Is(err, state.ErrStaleTip) {
				t.Fatalf("\t%s\tTest 0:\tShould drop the block mined on the old tip: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould drop the block mined on the old tip.", success)

			chain := chainOf(t, local)
			if len(chain) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould hold 3 blocks, got %d.", failed, len(chain))
			}
			t.Logf("\t%s\tTest 0:\tShould hold 3 blocks.", success)

			latest, _ := chain.Latest()
			remoteLatest, _ := remoteChain.Latest()
			if latest.Hash != remoteLatest.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould end on the remote tip: got %s, exp %s", failed, latest.Hash, remoteLatest.Hash)
			}
			t.Logf("\t%s\tTest 0:\tShould end on the remote tip.", success)

			if w.cancelCount() == 0 {
				t.Fatalf("\t%s\tTest 0:\tShould signal the miner to cancel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould signal the miner to cancel.", success)
		}
	}
}
