package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexID decodes an identifier given either as a JSON number or as a
// decimal string. null leaves it zero.
type flexID int64

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("id %q is not an integer", s)
		}
		*id = flexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexID(n)
	return nil
}

// UnmarshalJSON accepts the id as a number or a numeric string.
func (l *Library) UnmarshalJSON(data []byte) error {
	type plain Library
	aux := struct {
		*plain
		ID flexID `json:"id"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.ID = int64(aux.ID)
	return nil
}

// UnmarshalJSON accepts the id as a number or a numeric string.
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	aux := struct {
		*plain
		ID flexID `json:"id"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.ID = int64(aux.ID)
	return nil
}

// UnmarshalJSON accepts the id as a number or a numeric string.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		ID flexID `json:"id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.ID = int64(aux.ID)
	return nil
}
