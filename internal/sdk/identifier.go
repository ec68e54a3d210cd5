package sdk

// IdentifierKind discriminates the communication identifier union.
type IdentifierKind string

const (
	KindCommunicationUser  IdentifierKind = "communicationUser"
	KindPhoneNumber        IdentifierKind = "phoneNumber"
	KindMicrosoftTeamsUser IdentifierKind = "microsoftTeamsUser"
	KindUnknown            IdentifierKind = "unknown"
)

// Identifier is the communication identifier of a user. Only the field that
// matches Kind is meaningful.
type Identifier struct {
	Kind                 IdentifierKind `json:"kind" yaml:"kind"`
	CommunicationUserID  string         `json:"communicationUserId,omitempty" yaml:"communicationUserId,omitempty"`
	PhoneNumber          string         `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	MicrosoftTeamsUserID string         `json:"microsoftTeamsUserId,omitempty" yaml:"microsoftTeamsUserId,omitempty"`
	IsAnonymous          bool           `json:"isAnonymous,omitempty" yaml:"isAnonymous,omitempty"`
	ID                   string         `json:"id,omitempty" yaml:"id,omitempty"`
}

// CommunicationUser builds a communication-user identifier.
func CommunicationUser(id string) Identifier {
	return Identifier{Kind: KindCommunicationUser, CommunicationUserID: id}
}

// PhoneNumber builds a phone-number identifier.
func PhoneNumber(number string) Identifier {
	return Identifier{Kind: KindPhoneNumber, PhoneNumber: number}
}

// MicrosoftTeamsUser builds a Teams-user identifier.
func MicrosoftTeamsUser(id string, anonymous bool) Identifier {
	return Identifier{Kind: KindMicrosoftTeamsUser, MicrosoftTeamsUserID: id, IsAnonymous: anonymous}
}

// Unknown builds an identifier of unknown kind.
func Unknown(id string) Identifier {
	return Identifier{Kind: KindUnknown, ID: id}
}

// IsZero reports whether the identifier is unset.
func (i Identifier) IsZero() bool {
	return i == Identifier{}
}

// RawID returns the kind-specific id.
func (i Identifier) RawID() string {
	switch i.Kind {
	case KindCommunicationUser:
		return i.CommunicationUserID
	case KindPhoneNumber:
		return i.PhoneNumber
	case KindMicrosoftTeamsUser:
		return i.MicrosoftTeamsUserID
	default:
		return i.ID
	}
}
