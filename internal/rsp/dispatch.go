package rsp

// Execute decodes and runs one COP2 vector-unit instruction word. Bit 25
// selects the "VU" opcode group (the 46 opcodes in Op); CFC2/CTC2 (fmt
// 0x02/0x06 in the COP instruction format) move data to/from a GPR and so
// are left to the interpreter, which owns the register file — it calls
// VCO/SetVCO/VCC/SetVCC/VCE/SetVCE directly instead.
func (r *Rsp) Execute(op uint32) {
	if op&(1<<25) == 0 {
		return
	}
	fn := op & 0x3F
	e := int((op >> 21) & 0xF)
	vs := int((op >> 11) & 0x1F)
	vt := int((op >> 16) & 0x1F)
	vd := int((op >> 6) & 0x1F)
	r.Op(fn, e, vs, vs, vt, vd)
}
