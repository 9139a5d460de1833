package jt808

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// DefaultProtocolName 协议定义名称
const DefaultProtocolName = "JT/T808"

// ProtocolKey 协议定义标识
type ProtocolKey struct {
	Name    string
	Version Version
}

func (k ProtocolKey) String() string { return k.Name + "@" + k.Version.String() }

// MessageDefinition 消息类型 -> 编解码器
type MessageDefinition struct {
	Type      MessageType
	CodecName string

	codec Codec
}

// Codec 同一注册表内按编解码器名称共享同一实例，各版本定义复用
func (d *MessageDefinition) Codec() Codec { return d.codec }

// ProtocolDefinition 某一协议版本下的全部消息定义
type ProtocolDefinition struct {
	Key      ProtocolKey
	messages map[MessageType]*MessageDefinition
}

// Types 已定义的消息类型，升序
func (p *ProtocolDefinition) Types() []MessageType {
	out := make([]MessageType, 0, len(p.messages))
	for t := range p.messages {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry 定义注册表：启动阶段写入，Freeze 之后只读，查询不加锁
type Registry struct {
	mu        sync.Mutex
	frozen    atomic.Bool
	protocols map[ProtocolKey]*ProtocolDefinition
	codecs    map[string]Codec // codecName -> 实例
}

func NewRegistry() *Registry {
	return &Registry{
		protocols: make(map[ProtocolKey]*ProtocolDefinition),
		codecs:    make(map[string]Codec),
	}
}

// RegisterProtocol 注册协议定义，重复注册返回 ErrDuplicateProtocol
func (r *Registry) RegisterProtocol(key ProtocolKey) (*ProtocolDefinition, error) {
	if !key.Version.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return nil, ErrRegistryFrozen
	}
	if _, ok := r.protocols[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateProtocol, key)
	}
	p := &ProtocolDefinition{Key: key, messages: make(map[MessageType]*MessageDefinition)}
	r.protocols[key] = p
	return p, nil
}

// RegisterMessage 在已注册的协议下按编解码器名称登记消息类型
func (r *Registry) RegisterMessage(key ProtocolKey, t MessageType, codecName string) error {
	factory, ok := codecFactories[codecName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	p, ok := r.protocols[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProtocolNotFound, key)
	}
	if _, dup := p.messages[t]; dup {
		return fmt.Errorf("%w: %s %s", ErrDuplicateMessage, key, t.Hex())
	}
	codec, ok := r.codecs[codecName]
	if !ok {
		codec = factory()
	}
	// 登记时校验类型与版本，避免运行期才发现定义写错
	if codec.Type() != t {
		return fmt.Errorf("%w: codec %q handles %s, not %s", ErrMessageMismatch, codecName, codec.Type().Hex(), t.Hex())
	}
	if !codec.Supports(key.Version) {
		return fmt.Errorf("%w: codec %q does not support %s", ErrUnsupportedVersion, codecName, key.Version)
	}
	r.codecs[codecName] = codec
	p.messages[t] = &MessageDefinition{Type: t, CodecName: codecName, codec: codec}
	return nil
}

// Freeze 结束启动注册阶段
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool { return r.frozen.Load() }

func (r *Registry) protocol(key ProtocolKey) (*ProtocolDefinition, bool) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	p, ok := r.protocols[key]
	return p, ok
}

// Protocol 查询协议定义
func (r *Registry) Protocol(key ProtocolKey) (*ProtocolDefinition, error) {
	p, ok := r.protocol(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProtocolNotFound, key)
	}
	return p, nil
}

// Lookup 解码时按 (协议, 消息 ID) 查询
func (r *Registry) Lookup(key ProtocolKey, t MessageType) (*MessageDefinition, error) {
	p, err := r.Protocol(key)
	if err != nil {
		return nil, err
	}
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	d, ok := p.messages[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrDefinitionNotFound, key, t)
	}
	return d, nil
}

// LookupMessage 编码时按消息结构查询，版本取自消息头
func (r *Registry) LookupMessage(name string, m Message) (*MessageDefinition, error) {
	key := ProtocolKey{Name: name, Version: m.MessageHeader().Version}
	return r.Lookup(key, m.MessageType())
}

// Keys 已注册的协议定义
func (r *Registry) Keys() []ProtocolKey {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	keys := make([]ProtocolKey, 0, len(r.protocols))
	for k := range r.protocols {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Version < keys[j].Version
	})
	return keys
}
