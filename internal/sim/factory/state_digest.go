package factory

import (
	"crypto/sha256"
	"encoding/hex"

	"foobartory.dev/internal/sim/factory/io/digestcodec"
	"foobartory.dev/internal/sim/tasks"
)

// StateDigest hashes everything that determines future behaviour except the
// RNG state: counters, the ordered unit stacks and every robot's task.
func (f *Factory) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	f.digestHeader(h, &tmp)
	f.digestPool(h, &tmp)
	f.digestRobots(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (f *Factory) digestHeader(h digestcodec.Writer, tmp *[8]byte) {
	digestcodec.WriteString(h, tmp, f.catalog.Digest)
	digestcodec.WriteI64(h, tmp, f.cfg.Seed)
	digestcodec.WriteF64(h, tmp, f.cfg.TickSeconds)
	digestcodec.WriteU64(h, tmp, f.tick)
}

func (f *Factory) digestPool(h digestcodec.Writer, tmp *[8]byte) {
	p := f.pool
	digestcodec.WriteI64(h, tmp, int64(p.currency))
	digestcodec.WriteU64(h, tmp, p.maxFooID)
	digestcodec.WriteU64(h, tmp, p.maxBarID)
	digestcodec.WriteU64s(h, tmp, p.FooIDs())
	digestcodec.WriteU64s(h, tmp, p.BarIDs())
	digestcodec.WriteU64(h, tmp, uint64(len(p.foobar)))
	for _, fb := range p.foobar {
		digestcodec.WriteU64(h, tmp, fb.FooID)
		digestcodec.WriteU64(h, tmp, fb.BarID)
	}
	digestcodec.WriteU64(h, tmp, p.nextRobotNum)
}

func (f *Factory) digestRobots(h digestcodec.Writer, tmp *[8]byte) {
	digestcodec.WriteU64(h, tmp, uint64(len(f.pool.robots)))
	for _, r := range f.pool.robots {
		digestcodec.WriteU64(h, tmp, r.ID)
		h.Write([]byte{digestcodec.BoolByte(r.Task != nil)})
		if r.Task != nil {
			digestWorkTask(h, tmp, r.Task)
		}
	}
}

func digestWorkTask(h digestcodec.Writer, tmp *[8]byte, wt *tasks.WorkTask) {
	digestcodec.WriteString(h, tmp, string(wt.Kind))
	digestcodec.WriteF64(h, tmp, wt.Target)
	digestcodec.WriteF64(h, tmp, wt.Elapsed)
	digestcodec.WriteU64(h, tmp, wt.StartedTick)
	digestcodec.WriteI64(h, tmp, int64(wt.WorkTicks))
	digestcodec.WriteU64s(h, tmp, wt.Held.FooIDs)
	digestcodec.WriteU64s(h, tmp, wt.Held.BarIDs)
	digestcodec.WriteU64(h, tmp, uint64(len(wt.Held.Foobars)))
	for _, fb := range wt.Held.Foobars {
		digestcodec.WriteU64(h, tmp, fb.FooID)
		digestcodec.WriteU64(h, tmp, fb.BarID)
	}
	digestcodec.WriteI64(h, tmp, int64(wt.Held.Currency))
}
