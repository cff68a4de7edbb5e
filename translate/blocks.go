package translate

import (
	"fmt"

	"github.com/llir/llvm/ir"

	"github.com/liftgo/dagger/irb"
	"github.com/liftgo/dagger/mc"
)

// blockState tracks where a BBM-managed IR block is in its lifecycle:
// placeholder (trap+unreachable body, not yet opened), open (insertion
// point set, being filled), or finalized (has a terminator).
type blockState uint8

const (
	statePlaceholder blockState = iota
	stateOpen
	stateFinalized
)

// BlockManager maps code addresses to IR basic blocks, lazily materializing
// placeholder blocks (trap+unreachable) that are later opened for
// insertion. Unopened blocks are a safety net: control transferring to an
// address the translator never modeled faults at runtime instead of
// falling off the end of the function.
type BlockManager struct {
	fn     *ir.Func
	irb    *irb.Builder
	blocks map[mc.Address]*ir.Block
	states map[mc.Address]blockState
}

// NewBlockManager returns a BlockManager for fn, using b to materialize
// placeholder bodies.
func NewBlockManager(fn *ir.Func, b *irb.Builder) *BlockManager {
	return &BlockManager{
		fn:     fn,
		irb:    b,
		blocks: make(map[mc.Address]*ir.Block),
		states: make(map[mc.Address]blockState),
	}
}

// GetOrCreate returns the IR block for addr, creating a trap+unreachable
// placeholder if none exists yet. Calling it twice for the same address
// always returns the same block.
func (m *BlockManager) GetOrCreate(addr mc.Address) *ir.Block {
	if blk, ok := m.blocks[addr]; ok {
		return blk
	}
	blk := m.fn.NewBlock(fmt.Sprintf("bb_%s", hex(addr)))
	saved := m.irb.Block
	m.irb.SetBlock(blk)
	m.irb.Trap()
	m.irb.SetBlock(saved)
	m.blocks[addr] = blk
	m.states[addr] = statePlaceholder
	return blk
}

// PrepareForInsertion opens the block at addr: its placeholder body
// (exactly {call to trap, unreachable}) is erased and the block is marked
// open. Calling this on an address whose block has already been opened —
// i.e. two MC basic blocks claiming the same start address — is a
// programmer/generator bug and asserts.
func (m *BlockManager) PrepareForInsertion(addr mc.Address) *ir.Block {
	blk := m.GetOrCreate(addr)
	state := m.states[addr]
	assertf(state == statePlaceholder,
		"multiple basic blocks at address %s (state=%d)", hex(addr), state)
	assertf(len(blk.Insts) == 1 && blk.Term != nil,
		"placeholder block at %s is not exactly {trap call, unreachable}: %d instructions, terminator=%v",
		hex(addr), len(blk.Insts), blk.Term != nil)
	blk.Insts = blk.Insts[:0]
	blk.Term = nil
	m.states[addr] = stateOpen
	return blk
}

// Finalize marks the block at addr as having received its terminator.
func (m *BlockManager) Finalize(addr mc.Address) {
	m.states[addr] = stateFinalized
}

func hex(addr mc.Address) string {
	return fmt.Sprintf("%x", uint64(addr))
}
