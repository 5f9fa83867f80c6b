// Package session owns the lifecycle of the rig's single active control
// loop run.
package session

import "encoding/json"

// Kind identifies what the active control loop is doing.
type Kind int

const (
	None Kind = iota
	Teleoperation
	Recording
)

var kindNames = map[Kind]string{
	None:          "",
	Teleoperation: "teleoperation",
	Recording:     "recording",
}

var kindFromName = map[string]Kind{
	"teleoperation": Teleoperation,
	"recording":     Recording,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := kindFromName[s]; ok {
		*k = v
	}
	return nil
}
