package factory

import (
	"fmt"
	"math"

	"foobartory.dev/internal/protocol"
	"foobartory.dev/internal/sim/tasks"
)

// Robot is a worker holding at most one in-flight task.
type Robot struct {
	ID   uint64
	Task *tasks.WorkTask
}

func (r *Robot) Name() string { return fmt.Sprintf("ROBOT #%d", r.ID) }

func (r *Robot) Idle() bool { return r.Task == nil }

// TickRobot advances r by one tick. An idle robot picks and starts a task;
// a working robot accumulates elapsed time and completes the task once the
// target is reached. Tasks are never preempted.
func (f *Factory) TickRobot(r *Robot) error {
	if r.Task == nil {
		return f.startTask(r)
	}
	r.Task.Elapsed += f.cfg.TickSeconds
	r.Task.WorkTicks++
	if r.Task.Done() {
		return f.finishTask(r)
	}
	return nil
}

func (f *Factory) startTask(r *Robot) error {
	def, err := f.sel.Select(f.pool)
	if err != nil {
		return fmt.Errorf("%s: select: %w", r.Name(), err)
	}
	target := f.sel.Duration(def)
	held, err := f.tasks[def.Kind].Start(f.pool)
	if err != nil {
		return fmt.Errorf("%s: start %s: %w", r.Name(), def.Name, err)
	}
	r.Task = &tasks.WorkTask{
		Kind:        def.Kind,
		Target:      target,
		StartedTick: f.tick,
		Held:        held,
	}
	f.stats.Selections[def.Kind]++
	f.selections = append(f.selections, Selection{RobotID: r.ID, Kind: def.Kind})
	f.emit(Event{
		Type:    protocol.EventTaskStarted,
		Tick:    f.tick,
		RobotID: r.ID,
		Robot:   r.Name(),
		Kind:    def.Kind,
		Task:    def.Name,
		Target:  target,
	})
	return nil
}

func (f *Factory) finishTask(r *Robot) error {
	wt := r.Task
	task := f.tasks[wt.Kind]
	out, err := task.Complete(f.pool, wt.Held)
	if err != nil {
		return fmt.Errorf("%s: complete %s: %w", r.Name(), task.Def().Name, err)
	}
	r.Task = nil

	f.stats.Completed[wt.Kind]++
	f.stats.Earned += out.Earned
	if out.Foobar != nil {
		f.stats.FoobarsAssembled++
	}
	if out.Earned > 0 {
		f.stats.FoobarsSold++
	}

	f.emit(Event{
		Type:    protocol.EventTaskFinished,
		Tick:    f.tick,
		RobotID: r.ID,
		Robot:   r.Name(),
		Kind:    wt.Kind,
		Task:    task.Def().Name,
		Target:  wt.Target,
		Elapsed: roundTenth(wt.Elapsed),
		Storage: f.pool.Storage(),
	})
	if out.NewRobot != nil {
		f.stats.RobotsBought++
		f.emit(Event{
			Type:     protocol.EventRobotBought,
			Tick:     f.tick,
			RobotID:  r.ID,
			Robot:    r.Name(),
			Kind:     wt.Kind,
			Task:     task.Def().Name,
			NewRobot: out.NewRobot.Name(),
			Storage:  f.pool.Storage(),
		})
	}
	return nil
}

func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
