package jt808

import (
	"fmt"
	"strings"
)

// Version JT/T 808 协议版本，顺序有意义：V2019 起消息头布局变化
type Version uint8

const (
	V2011 Version = iota
	V2013
	V2019
)

var versionNames = [...]string{"V2011", "V2013", "V2019"}

func (v Version) String() string {
	if int(v) < len(versionNames) {
		return versionNames[v]
	}
	return fmt.Sprintf("Version(%d)", uint8(v))
}

// Valid 是否为已知版本
func (v Version) Valid() bool { return v <= V2019 }

// phoneLen 终端手机号 BCD 字节数
func (v Version) phoneLen() int {
	if v >= V2019 {
		return 10
	}
	return 6
}

// ParseVersion 解析 "V2019" / "2019" 形式的版本名
func ParseVersion(s string) (Version, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "V") {
		name = "V" + name
	}
	for i, n := range versionNames {
		if n == name {
			return Version(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
}

// MarshalText 便于 yaml/json 输出
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText 配置文件中按名称书写版本
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
