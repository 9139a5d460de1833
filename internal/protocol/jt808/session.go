package jt808

// Session 单连接协议状态：推断出的版本与登录标记
// 由连接自身的处理协程独占，不做并发保护
type Session struct {
	version       Version
	hasVersion    bool
	authenticated bool
	phone         string
	serial        uint16
}

func NewSession() *Session { return &Session{} }

// Version 返回已推断的版本，首个注册/鉴权帧之前为空
func (s *Session) Version() (Version, bool) { return s.version, s.hasVersion }

func (s *Session) SetVersion(v Version) {
	s.version, s.hasVersion = v, true
}

func (s *Session) Authenticated() bool { return s.authenticated }

func (s *Session) SetAuthenticated(ok bool) { s.authenticated = ok }

// Phone 鉴权通过的终端手机号
func (s *Session) Phone() string { return s.phone }

func (s *Session) SetPhone(phone string) { s.phone = phone }

// NextSerial 平台下行流水号，从 1 开始循环
func (s *Session) NextSerial() uint16 {
	s.serial++
	if s.serial == 0 {
		s.serial = 1
	}
	return s.serial
}
