package jt808

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed definitions.yaml
var defaultDefinitions []byte

// Definitions 声明式协议定义
type Definitions struct {
	Protocols []ProtocolSpec `yaml:"protocols"`
}

// ProtocolSpec 单个协议版本的定义
type ProtocolSpec struct {
	Name     string        `yaml:"name"`
	Version  Version       `yaml:"version"`
	Messages []MessageSpec `yaml:"messages"`
}

// MessageSpec 消息 ID（十六进制或十进制字符串）与编解码器名称
type MessageSpec struct {
	ID    string `yaml:"id"`
	Codec string `yaml:"codec"`
}

func (m MessageSpec) messageType() (MessageType, error) {
	v, err := strconv.ParseUint(m.ID, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("message id %q: %w", m.ID, err)
	}
	return MessageType(v), nil
}

// ParseDefinitions 解析 YAML 定义
func ParseDefinitions(b []byte) (*Definitions, error) {
	var d Definitions
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal definitions: %w", err)
	}
	return &d, nil
}

// LoadDefinitions 从文件加载定义
func LoadDefinitions(path string) (*Definitions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	return ParseDefinitions(b)
}

// DefaultDefinitions 内置定义（三个版本的终端注册/鉴权/心跳/注销与应答）
func DefaultDefinitions() *Definitions {
	d, err := ParseDefinitions(defaultDefinitions)
	if err != nil {
		panic(err)
	}
	return d
}

// Apply 写入注册表，任一错误立即返回
func (d *Definitions) Apply(reg *Registry) error {
	for _, p := range d.Protocols {
		name := p.Name
		if name == "" {
			name = DefaultProtocolName
		}
		key := ProtocolKey{Name: name, Version: p.Version}
		if _, err := reg.RegisterProtocol(key); err != nil {
			return err
		}
		for _, m := range p.Messages {
			t, err := m.messageType()
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if err := reg.RegisterMessage(key, t, m.Codec); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildRegistry 按定义构建并冻结注册表；d 为 nil 时使用内置定义
func BuildRegistry(d *Definitions) (*Registry, error) {
	if d == nil {
		d = DefaultDefinitions()
	}
	reg := NewRegistry()
	if err := d.Apply(reg); err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}
