package core

import "kathy/internal/domain"

// memberSession implements MemberSession by pairing identity + transport.
type memberSession struct {
	chatter *domain.Chatter
	conn    Connection
}

func NewMemberSession(chatter *domain.Chatter, conn Connection) MemberSession {
	return &memberSession{chatter: chatter, conn: conn}
}

func (m *memberSession) Chatter() *domain.Chatter { return m.chatter }
func (m *memberSession) Conn() Connection         { return m.conn }
