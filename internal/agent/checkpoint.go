package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pendulum-ppo/internal/nn"
)

// Checkpoint is the on-disk snapshot of a trained agent.
type Checkpoint struct {
	SavedAt time.Time  `json:"saved_at"`
	RunID   string     `json:"run_id"`
	Critic  nn.State   `json:"critic"`
	Actor   ActorState `json:"actor"`
}

// Save writes all learnable parameters to path. The file is written to a
// temporary sibling first and renamed into place, so the previous
// checkpoint survives a crash mid-write.
func (p *PPO) Save(path string) error {
	ck := Checkpoint{
		SavedAt: time.Now().UTC(),
		RunID:   p.id,
		Critic:  p.critic.State(),
		Actor:   p.actor.State(),
	}
	data, err := json.MarshalIndent(ck, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Load replaces the agent's parameters with the checkpoint at path. The
// agent is left unchanged when the file is missing, unreadable, or shaped
// for a different architecture. The read error is returned unwrapped so
// callers can distinguish a missing file from a corrupt one.
func (p *PPO) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ck Checkpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	// Validate everything before mutating anything.
	if err := p.critic.CheckState(ck.Critic); err != nil {
		return fmt.Errorf("load critic: %w", err)
	}
	if err := p.actor.SetState(ck.Actor); err != nil {
		return fmt.Errorf("load actor: %w", err)
	}
	if err := p.critic.SetState(ck.Critic); err != nil {
		return fmt.Errorf("load critic: %w", err)
	}
	return nil
}
