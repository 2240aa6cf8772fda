package failure

import "fmt"

// StorageTag classifica a falha do colaborador de armazenamento.
type StorageTag int

const (
	TagUnknown StorageTag = iota
	TagUniqueConflict
	TagRecordMissing
)

func (t StorageTag) String() string {
	switch t {
	case TagUniqueConflict:
		return "unique_conflict"
	case TagRecordMissing:
		return "record_missing"
	default:
		return "unknown"
	}
}

// StorageFault é a falha genérica do contrato CRUD de armazenamento.
// Err guarda o erro do driver; ele vai para o log, nunca para a resposta.
type StorageFault struct {
	Tag      StorageTag
	Op       string
	Resource string
	ID       any
	Err      error
}

func (e *StorageFault) Error() string {
	msg := fmt.Sprintf("storage %s %s", e.Op, describe(e.Resource, e.ID))
	if e.Tag != TagUnknown {
		msg += " (" + e.Tag.String() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageFault) Unwrap() error { return e.Err }

func RecordMissing(op, resource string, id any) *StorageFault {
	return &StorageFault{Tag: TagRecordMissing, Op: op, Resource: resource, ID: id}
}

func UniqueConflict(op, resource string, err error) *StorageFault {
	return &StorageFault{Tag: TagUniqueConflict, Op: op, Resource: resource, Err: err}
}

func Storage(op, resource string, err error) *StorageFault {
	return &StorageFault{Op: op, Resource: resource, Err: err}
}
