package vm

import (
	"math/rand"
	"time"

	"github.com/Urethramancer/minimisa/decoder"
)

// randSource is the CPU's source of uniform 32-bit values for the rand
// instruction. It exists as an interface (rather than calling math/rand's
// package-level functions directly) so tests can swap in a deterministic
// source instead of asserting on an actual random value.
type randSource interface {
	Uint32() uint32
}

type mathRandSource struct {
	r *rand.Rand
}

func (s mathRandSource) Uint32() uint32 { return s.r.Uint32() }

// newDefaultRandSource builds the CPU's production randSource. spec.md §4.6
// only requires "uniform random 32 bits" with no cryptographic or
// reproducibility requirement, so math/rand is the right tool; none of the
// pack's other dependencies offer a more specific RNG primitive worth
// reaching for here.
func newDefaultRandSource() randSource {
	return mathRandSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func init() {
	register("sleep", execSleep)
	register("rand", execRand)
}

func execSleep(c *CPU, inst *decoder.Instruction) error {
	c.Sleep = inst.Args[0].UInt
	return nil
}

func execRand(c *CPU, inst *decoder.Instruction) error {
	c.R[regOperand(inst, 0)] = c.rng.Uint32()
	return nil
}
