package engine

import "github.com/carlosrm22/lazaro/internal/settings"

// policy is what a block level allows.
type policy struct {
	// autoStart starts a pending break without a command.
	autoStart bool
	// useGrace delays autoStart by the grace period.
	useGrace bool
	// limitSnoozes caps snoozes per due cycle at the strict allowance.
	limitSnoozes bool
	// lockActive refuses to end or snooze a running break.
	lockActive bool
	// dailyLimitBlock is set when the daily-limit break completes.
	dailyLimitBlock Block
	// acknowledgeable lets the user lift the block.
	acknowledgeable bool
}

var policies = map[settings.BlockLevel]policy{
	settings.Soft: {
		dailyLimitBlock: BlockNone,
		acknowledgeable: true,
	},
	settings.Medium: {
		autoStart:       true,
		useGrace:        true,
		dailyLimitBlock: BlockAcknowledge,
		acknowledgeable: true,
	},
	settings.Strict: {
		autoStart:       true,
		limitSnoozes:    true,
		lockActive:      true,
		dailyLimitBlock: BlockUntilReset,
	},
}

func policyFor(level settings.BlockLevel) policy {
	if p, ok := policies[level]; ok {
		return p
	}
	return policies[settings.Medium]
}
