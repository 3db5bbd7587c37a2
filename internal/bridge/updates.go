package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/params"
)

// UpdateResult aggregates the outcome of one update batch. Success is
// the logical AND of every sub-call; FieldErrors carries the per-field
// failures for callers that want detail. The device has no transactions,
// so a failed sub-call never rolls back or aborts the others.
type UpdateResult struct {
	Success     bool
	FieldErrors map[string]error
}

// ApplyUpdates applies a batch of semantic field changes to the device.
//
// Fields with a dedicated firmware endpoint are routed there one by one;
// everything else batches into a single generic /set call. All requested
// fields are attempted even when earlier sub-calls fail. After the batch
// completes, exactly one snapshot refresh runs unconditionally so the
// externally visible state reflects what the device actually adopted,
// not what the caller intended.
func (b *Bridge) ApplyUpdates(ctx context.Context, fields map[string]any) UpdateResult {
	result := UpdateResult{
		Success:     true,
		FieldErrors: make(map[string]error),
	}

	generic := make(map[string]any)

	// One outstanding write batch at a time: a second batch waits here
	// until the first finishes all of its sub-calls
	b.writeMu.Lock()

	// Walk the descriptor table for deterministic sub-call order
	for _, f := range params.Fields {
		value, requested := fields[f.Semantic]
		if !requested {
			continue
		}

		if f.Routing == params.RouteGeneric {
			generic[f.Semantic] = value
			continue
		}

		if err := b.applySpecialized(ctx, f, value); err != nil {
			result.Success = false
			result.FieldErrors[f.Semantic] = err
			logging.Warn("Specialized parameter write failed",
				zap.String("field", f.Semantic), zap.Error(err))
		}
	}

	// Unknown keys are dropped with a warning, never forwarded
	for semantic := range fields {
		if _, ok := params.Lookup(semantic); !ok {
			logging.Warn("Ignoring unknown field in update batch",
				zap.String("field", semantic))
		}
	}

	if len(generic) > 0 {
		wire := params.ToWireParams(generic)
		if len(wire) > 0 {
			if _, _, err := b.client.SendCommand(ctx, "/set", wire); err != nil {
				result.Success = false
				for semantic := range generic {
					result.FieldErrors[semantic] = err
				}
				logging.Warn("Generic parameter write failed", zap.Error(err))
			}
		}
	}

	b.writeMu.Unlock()

	// Mandatory post-write refresh, success or not
	if _, err := b.Refresh(ctx); err != nil {
		logging.Debug("Post-write refresh failed", zap.Error(err))
	}

	return result
}

// applySpecialized issues one dedicated-endpoint write for a field.
func (b *Bridge) applySpecialized(ctx context.Context, f params.Field, value any) error {
	encoded, err := params.SpecializedValue(f, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", f.Semantic, err)
	}

	query := map[string]string{}
	switch f.Routing {
	case params.RouteMotionParam:
		query["param"] = f.Wire
		query["value"] = encoded
	case params.RouteLightMode:
		query["mode"] = encoded
	case params.RouteMotionEnable, params.RouteDirectionalLight, params.RouteBackgroundMode:
		query["enabled"] = encoded
	default:
		query["value"] = encoded
	}

	_, _, err = b.client.SendCommand(ctx, f.Routing.EndpointPath(), query)
	return err
}

// ApplyAllSettings reconstructs the full semantic field set from the
// current snapshot and resubmits it as one batch. Used to force the
// device to re-adopt the bridge's last known configuration, e.g. after
// the device reboots to factory defaults.
func (b *Bridge) ApplyAllSettings(ctx context.Context) UpdateResult {
	settings := b.store.Snapshot().Settings
	return b.ApplyUpdates(ctx, params.SemanticFields(settings))
}
