package param

import "github.com/jeroenrinzema/pqodbc/internal/convert"

// BuildBindValue implements the BuildingBindRequest leg of the resolver:
// encode one resolved server value into the raw bytes, format code, and
// type OID a Bind message parameter slot needs. Text format (0) is used
// whenever the value carries no binary rendering.
func BuildBindValue(sv convert.ServerValue) (value []byte, format int16, oid uint32) {
	if sv.Null {
		return nil, 0, sv.OID
	}
	if sv.Binary != nil {
		return sv.Binary, 1, sv.OID
	}
	return []byte(sv.Text), 0, sv.OID
}
