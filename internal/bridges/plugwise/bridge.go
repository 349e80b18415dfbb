package plugwise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-plugwise/internal/infrastructure/mqtt"
	pw "github.com/nerrad567/gray-logic-plugwise/internal/plugwise"
)

const (
	// repoTimeout bounds repository writes made from message handlers.
	repoTimeout = 5 * time.Second

	defaultVersion = "dev"
)

// Bridge translates between the stick transport's raw fields and Core's
// decoded state over MQTT.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg          *Config
	mqtt         MQTTClient
	health       *HealthReporter
	calibrations CalibrationRepository
	nodeRepo     NodeRepository
	decoder      decoder
	encoder      encoder

	calCache map[pw.MACAddress]pw.PowerCalibration
	calMu    sync.RWMutex

	nodes   map[pw.MACAddress]Node
	nodesMu sync.RWMutex

	// Merged state per node. Each field message updates only its own keys.
	stateCache   map[pw.MACAddress]map[string]any
	stateCacheMu sync.Mutex

	fieldsReceived     atomic.Uint64
	fieldsMalformed    atomic.Uint64
	statesPublished    atomic.Uint64
	energySkipped      atomic.Uint64
	calibrationsStored atomic.Uint64
	commandsEncoded    atomic.Uint64
	commandsFailed     atomic.Uint64

	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger Logger
}

// MQTTClient is the part of the MQTT client the bridge uses.
// *mqtt.Client satisfies it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Logger is the structured logger the bridge writes to.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	Config     *Config
	MQTTClient MQTTClient

	// Calibrations and Nodes are optional. Without them the bridge keeps
	// its state in memory only.
	Calibrations CalibrationRepository
	Nodes        NodeRepository

	// Location renders interval bounds in site-local time. Defaults to UTC.
	Location *time.Location

	Version string
	Logger  Logger
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	version := opts.Version
	if version == "" {
		version = defaultVersion
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bridge{
		cfg:          opts.Config,
		mqtt:         opts.MQTTClient,
		calibrations: opts.Calibrations,
		nodeRepo:     opts.Nodes,
		decoder:      newDecoder(opts.Location, opts.Config.GetLogInterval()),
		encoder:      newEncoder(),
		calCache:     make(map[pw.MACAddress]pw.PowerCalibration),
		nodes:        make(map[pw.MACAddress]Node),
		stateCache:   make(map[pw.MACAddress]map[string]any),
		ctx:          ctx,
		ctxCancel:    cancel,
		logger:       opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  opts.Config.Bridge.ID,
		Version:   version,
		Interval:  opts.Config.GetHealthInterval(),
		Publisher: opts.MQTTClient,
		Stats:     b.Stats,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start loads known nodes and calibrations, subscribes to the bridge's
// inbound topics and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.loadState(ctx); err != nil {
		return err
	}

	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	for _, topic := range []string{
		FieldSubscribeTopic(),
		CalibrationSubscribeTopic(),
		CommandSubscribeTopic(),
	} {
		if err := b.mqtt.Subscribe(topic, 1, b.handleMQTTMessage); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		b.logInfo("subscribed", "topic", topic)
	}

	b.health.Start(ctx)

	b.calMu.RLock()
	cals := len(b.calCache)
	b.calMu.RUnlock()

	b.logInfo("bridge started",
		"bridge_id", b.cfg.Bridge.ID,
		"nodes", b.nodeCount(),
		"calibrations", cals)

	return nil
}

// Stop shuts the bridge down. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

// loadState merges the repositories with the config file. Calibrations
// reported by a node win over configured seeds.
func (b *Bridge) loadState(ctx context.Context) error {
	if b.nodeRepo != nil {
		for _, n := range b.cfg.SeedNodes() {
			if err := b.nodeRepo.Upsert(ctx, n); err != nil {
				return fmt.Errorf("seeding node %s: %w", n.MAC, err)
			}
		}
		stored, err := b.nodeRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("loading nodes: %w", err)
		}
		b.nodesMu.Lock()
		for _, n := range stored {
			b.nodes[n.MAC] = n
		}
		b.nodesMu.Unlock()
	} else {
		b.nodesMu.Lock()
		for _, n := range b.cfg.SeedNodes() {
			b.nodes[n.MAC] = n
		}
		b.nodesMu.Unlock()
	}

	fromNode := make(map[pw.MACAddress]bool)
	if b.calibrations != nil {
		stored, err := b.calibrations.List(ctx)
		if err != nil {
			return fmt.Errorf("loading calibrations: %w", err)
		}
		b.calMu.Lock()
		for _, sc := range stored {
			b.calCache[sc.MAC] = sc.Calibration
			fromNode[sc.MAC] = sc.Source == CalibrationFromNode
		}
		b.calMu.Unlock()
	}

	for mac, cal := range b.cfg.SeedCalibrations() {
		if fromNode[mac] {
			continue
		}
		b.calMu.Lock()
		b.calCache[mac] = cal
		b.calMu.Unlock()

		if b.calibrations != nil {
			if err := b.calibrations.Save(ctx, mac, cal, CalibrationFromConfig); err != nil {
				return fmt.Errorf("seeding calibration %s: %w", mac, err)
			}
		}
	}

	b.health.SetNodeCount(b.nodeCount())
	return nil
}

// handleMQTTMessage routes an inbound message by topic category.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) error {
	// Stopped: drop deliveries still in flight.
	if b.ctx.Err() != nil {
		return nil
	}

	category, protocol, address, ok := mqtt.ParseBridgeTopic(topic)
	if !ok || protocol != Protocol {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}

	switch category {
	case mqtt.CategoryField:
		return b.handleField(address, payload)
	case mqtt.CategoryCalibration:
		return b.handleCalibration(address, payload)
	case mqtt.CategoryCommand:
		return b.handleCommand(address, payload)
	default:
		return fmt.Errorf("%w: category %q", ErrInvalidTopic, category)
	}
}

// handleField decodes one packet's fields and publishes the resulting state.
// Fields that fail to decode are logged and left out; the rest are published.
func (b *Bridge) handleField(address string, payload []byte) error {
	mac, err := pw.ParseMACAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, err)
	}

	var msg FieldMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	b.fieldsReceived.Add(1)

	res := b.decoder.decode(msg, b.calibrationFor(mac))

	for _, err := range res.Errors {
		if errors.Is(err, ErrCalibrationMissing) {
			b.energySkipped.Add(1)
			b.logWarn("energy skipped", "mac", mac.String(), "error", err)
			continue
		}
		b.fieldsMalformed.Add(1)
		b.logWarn("malformed field", "mac", mac.String(), "error", err)
	}
	if msg.MessageCode != "" && !res.KnownType {
		b.logDebug("unknown message code", "mac", mac.String(), "code", msg.MessageCode)
	}

	seen := msg.Timestamp
	if seen.IsZero() {
		seen = time.Now()
	}
	node := b.touchNode(mac, seen, res)

	if len(res.State) == 0 {
		return nil
	}

	return b.publishState(node, seen, res)
}

// publishState merges res into the node's cached state and publishes the
// full snapshot, retained, when any key changed.
func (b *Bridge) publishState(node Node, at time.Time, res DecodedField) error {
	snapshot, changed := b.mergeState(node.MAC, res.State)
	if len(changed) == 0 {
		return nil
	}

	msg := StateMessage{
		MAC:         node.MAC.String(),
		Name:        node.Name,
		Timestamp:   at.UTC(),
		MessageType: res.MessageType.String(),
		State:       snapshot,
		Protocol:    Protocol,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.forgetState(node.MAC, changed)
		return fmt.Errorf("marshalling state message: %w", err)
	}

	// QoS 1, retained
	if err := b.mqtt.Publish(StateTopic(msg.MAC), payload, 1, true); err != nil {
		b.forgetState(node.MAC, changed)
		return fmt.Errorf("publishing state for %s: %w", msg.MAC, err)
	}
	b.statesPublished.Add(1)
	return nil
}

// mergeState folds update into the cached state for mac and returns a copy
// of the result with the keys that changed. A new pulse reading replaces
// every energy key, so figures from an older reading are never mixed in.
func (b *Bridge) mergeState(mac pw.MACAddress, update map[string]any) (map[string]any, []string) {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	cached := b.stateCache[mac]
	if cached == nil {
		cached = make(map[string]any)
		b.stateCache[mac] = cached
	}

	var changed []string
	if _, ok := update[StatePulses]; ok {
		for _, key := range energyKeys {
			if _, fresh := update[key]; fresh {
				continue
			}
			if _, stale := cached[key]; stale {
				delete(cached, key)
				changed = append(changed, key)
			}
		}
	}

	for key, value := range update {
		if old, ok := cached[key]; ok && valuesEqual(old, value) {
			continue
		}
		cached[key] = value
		changed = append(changed, key)
	}

	return maps.Clone(cached), changed
}

// forgetState drops keys from the cache so the next message carrying them
// publishes again.
func (b *Bridge) forgetState(mac pw.MACAddress, keys []string) {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()
	for _, key := range keys {
		delete(b.stateCache[mac], key)
	}
}

// valuesEqual compares decoded state values. Decoded values are scalars or
// nil, so == is safe.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// touchNode records that mac was heard from and returns the updated node.
func (b *Bridge) touchNode(mac pw.MACAddress, seen time.Time, res DecodedField) Node {
	b.nodesMu.Lock()
	node, known := b.nodes[mac]
	node.MAC = mac
	node.LastSeen = seen.UTC()
	if res.HasDeviceType {
		node.DeviceType = res.DeviceType
	}
	b.nodes[mac] = node
	count := len(b.nodes)
	b.nodesMu.Unlock()

	if !known {
		b.logInfo("new node", "mac", mac.String())
		b.health.SetNodeCount(count)
	}

	if b.nodeRepo != nil {
		ctx, cancel := context.WithTimeout(b.ctx, repoTimeout)
		defer cancel()
		if err := b.nodeRepo.Upsert(ctx, node); err != nil {
			b.logError("failed to record node", err, "mac", mac.String())
		}
	}
	return node
}

// handleCalibration stores a calibration reported by a relay. A report
// matching the stored node calibration is not written again.
func (b *Bridge) handleCalibration(address string, payload []byte) error {
	mac, err := pw.ParseMACAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, err)
	}

	var msg CalibrationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	cal, err := pw.ParsePowerCalibration(msg.GainA, msg.GainB, msg.OffsetTotal, msg.OffsetNoise)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	b.calMu.Lock()
	b.calCache[mac] = cal
	b.calMu.Unlock()

	if b.calibrations != nil {
		ctx, cancel := context.WithTimeout(b.ctx, repoTimeout)
		defer cancel()

		stored, err := b.calibrations.Get(ctx, mac)
		switch {
		case err == nil:
			if stored.Source == CalibrationFromNode && stored.Calibration == cal {
				b.logDebug("calibration unchanged", "mac", mac.String())
				return nil
			}
			if stored.Source == CalibrationFromConfig {
				b.logInfo("node calibration replaces configured seed", "mac", mac.String())
			}
		case !errors.Is(err, ErrNodeNotFound):
			return fmt.Errorf("looking up calibration for %s: %w", mac, err)
		}

		if err := b.calibrations.Save(ctx, mac, cal, CalibrationFromNode); err != nil {
			return err
		}
	}
	b.calibrationsStored.Add(1)

	b.logInfo("calibration stored", "mac", mac.String())
	return nil
}

// handleCommand encodes a command for the transport and acknowledges it.
func (b *Bridge) handleCommand(address string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"address", address,
		"command", cmd.Command)

	mac, err := pw.ParseMACAddress(address)
	if err != nil {
		b.commandsFailed.Add(1)
		b.publishAck(NewAckError(cmd, address, ErrCodeInvalidAddress, err.Error()))
		return fmt.Errorf("%w: %w", ErrInvalidTopic, err)
	}

	mt, fields, err := b.encoder.encode(cmd)
	if err != nil {
		code := ErrCodeInvalidParameters
		if errors.Is(err, ErrInvalidCommand) {
			code = ErrCodeInvalidCommand
		}
		b.commandsFailed.Add(1)
		b.publishAck(NewAckError(cmd, mac.String(), code, err.Error()))
		return err
	}

	encoded := EncodedMessage{
		CommandID:   cmd.ID,
		Timestamp:   time.Now().UTC(),
		MAC:         mac.String(),
		MessageType: mt.String(),
		MessageCode: mt.CodeHex(),
		Fields:      fields,
	}
	out, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("marshalling encoded request: %w", err)
	}
	if err := b.mqtt.Publish(EncodedTopic(encoded.MAC), out, 1, false); err != nil {
		b.commandsFailed.Add(1)
		b.publishAck(NewAckError(cmd, encoded.MAC, ErrCodeBridgeError, err.Error()))
		return fmt.Errorf("publishing encoded request: %w", err)
	}

	b.commandsEncoded.Add(1)
	b.publishAck(NewAckMessage(cmd, encoded.MAC))
	return nil
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(AckTopic(ack.Address), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err, "command_id", ack.CommandID)
	}
}

func (b *Bridge) calibrationFor(mac pw.MACAddress) *pw.PowerCalibration {
	b.calMu.RLock()
	defer b.calMu.RUnlock()
	cal, ok := b.calCache[mac]
	if !ok {
		return nil
	}
	return &cal
}

// Calibration returns the calibration in use for mac.
func (b *Bridge) Calibration(mac pw.MACAddress) (pw.PowerCalibration, bool) {
	if cal := b.calibrationFor(mac); cal != nil {
		return *cal, true
	}
	return pw.PowerCalibration{}, false
}

// Node returns the node record for mac.
func (b *Bridge) Node(mac pw.MACAddress) (Node, bool) {
	b.nodesMu.RLock()
	defer b.nodesMu.RUnlock()
	n, ok := b.nodes[mac]
	return n, ok
}

func (b *Bridge) nodeCount() int {
	b.nodesMu.RLock()
	defer b.nodesMu.RUnlock()
	return len(b.nodes)
}

// Stats returns a snapshot of the bridge's counters.
func (b *Bridge) Stats() BridgeStatistics {
	return BridgeStatistics{
		FieldsReceived:     b.fieldsReceived.Load(),
		FieldsMalformed:    b.fieldsMalformed.Load(),
		StatesPublished:    b.statesPublished.Load(),
		EnergySkipped:      b.energySkipped.Load(),
		CalibrationsStored: b.calibrationsStored.Load(),
		CommandsEncoded:    b.commandsEncoded.Load(),
		CommandsFailed:     b.commandsFailed.Load(),
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}
