package bstf

import (
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// Value tags. Box is not serializable (it names an interior-mutable cell
// with identity, not data) and is rejected with a Format error.
const (
	tagVoid byte = iota
	tagNull
	tagBool
	tagNumber
	tagString
	tagBlob
	tagList
	tagMap
	tagSet
	tagTuple
	tagObject
	tagFuncPtr
	tagDataHandle
)

func (w *writer) writeValue(v value.Value) error {
	switch v.Kind() {
	case value.KindVoid:
		w.writeByte(tagVoid)
	case value.KindNull:
		w.writeByte(tagNull)
	case value.KindBool:
		w.writeByte(tagBool)
		b, _ := v.AsBool()
		if b {
			w.writeByte(1)
		} else {
			w.writeByte(0)
		}
	case value.KindNumber:
		w.writeByte(tagNumber)
		n, _ := v.AsNumber()
		if n.IsInt() {
			w.writeByte(1)
			w.writeInt64(n.Int64())
		} else {
			w.writeByte(0)
			w.writeFloat64(n.Float64())
		}
		w.writeString(n.Unit().String())
	case value.KindString:
		w.writeByte(tagString)
		s, _ := v.AsString()
		w.writeString(s)
	case value.KindBlob:
		w.writeByte(tagBlob)
		b, _ := v.AsBlob()
		w.writeBytes(b)
	case value.KindList:
		w.writeByte(tagList)
		l, _ := v.AsList()
		elems := l.Slice()
		w.writeUvarint(uint64(len(elems)))
		for _, e := range elems {
			if err := w.writeValue(e); err != nil {
				return err
			}
		}
	case value.KindMap:
		w.writeByte(tagMap)
		m, _ := v.AsMap()
		entries := m.Entries()
		w.writeUvarint(uint64(len(entries)))
		for _, e := range entries {
			if err := w.writeValue(e.Key); err != nil {
				return err
			}
			if err := w.writeValue(e.Value); err != nil {
				return err
			}
		}
	case value.KindSet:
		w.writeByte(tagSet)
		s, _ := v.AsSet()
		vals := s.Values()
		w.writeUvarint(uint64(len(vals)))
		for _, e := range vals {
			if err := w.writeValue(e); err != nil {
				return err
			}
		}
	case value.KindTuple:
		w.writeByte(tagTuple)
		t, _ := v.AsTuple()
		w.writeUvarint(uint64(len(t)))
		for _, e := range t {
			if err := w.writeValue(e); err != nil {
				return err
			}
		}
	case value.KindObject:
		w.writeByte(tagObject)
		ref, _ := v.AsObject()
		w.writeString(string(ref))
	case value.KindFuncPtr:
		w.writeByte(tagFuncPtr)
		ref, _ := v.AsFuncPtr()
		w.writeString(string(ref))
	case value.KindDataHandle:
		w.writeByte(tagDataHandle)
		ref, _ := v.AsDataHandle()
		w.writeString(string(ref))
	default:
		return stoferr.New(stoferr.Format, "bstf", "value kind is not serializable").WithDetail("kind", v.TypeOf())
	}
	return nil
}

func (r *reader) readValue() (value.Value, error) {
	tag, err := r.readByte()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case tagVoid:
		return value.Void, nil
	case tagNull:
		return value.Null, nil
	case tagBool:
		b, err := r.readByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(b != 0), nil
	case tagNumber:
		isInt, err := r.readByte()
		if err != nil {
			return value.Value{}, err
		}
		var n value.Number
		if isInt != 0 {
			iv, err := r.readInt64()
			if err != nil {
				return value.Value{}, err
			}
			n = value.IntNum(iv)
		} else {
			fv, err := r.readFloat64()
			if err != nil {
				return value.Value{}, err
			}
			n = value.FloatNum(fv)
		}
		unitName, err := r.readString()
		if err != nil {
			return value.Value{}, err
		}
		if unitName != "" {
			if u, ok := value.ParseUnit(unitName); ok {
				n = n.WithUnit(u)
			}
		}
		return value.Num(n), nil
	case tagString:
		s, err := r.readString()
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(s), nil
	case tagBlob:
		b, err := r.readBytes()
		if err != nil {
			return value.Value{}, err
		}
		return value.Blob(b), nil
	case tagList:
		count, err := r.readUvarint()
		if err != nil {
			return value.Value{}, err
		}
		l := value.NewList()
		for i := uint64(0); i < count; i++ {
			e, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			l = l.Push(e)
		}
		return value.ListVal(l), nil
	case tagMap:
		count, err := r.readUvarint()
		if err != nil {
			return value.Value{}, err
		}
		m := value.NewMap()
		for i := uint64(0); i < count; i++ {
			k, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			v, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			m = m.Set(k, v)
		}
		return value.MapVal(m), nil
	case tagSet:
		count, err := r.readUvarint()
		if err != nil {
			return value.Value{}, err
		}
		s := value.NewSet()
		for i := uint64(0); i < count; i++ {
			e, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			s = s.Add(e)
		}
		return value.SetVal(s), nil
	case tagTuple:
		count, err := r.readUvarint()
		if err != nil {
			return value.Value{}, err
		}
		out := make([]value.Value, count)
		for i := range out {
			e, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			out[i] = e
		}
		return value.Tuple(out), nil
	case tagObject:
		s, err := r.readString()
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(value.ObjRef(s)), nil
	case tagFuncPtr:
		s, err := r.readString()
		if err != nil {
			return value.Value{}, err
		}
		return value.FuncPtr(value.DataRef(s)), nil
	case tagDataHandle:
		s, err := r.readString()
		if err != nil {
			return value.Value{}, err
		}
		return value.DataHandle(value.DataRef(s)), nil
	default:
		return value.Value{}, stoferr.New(stoferr.Format, "bstf", "unknown value tag").WithDetail("tag", string(rune(tag)))
	}
}
