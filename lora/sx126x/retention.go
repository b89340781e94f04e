package sx126x

// addRegisterToRetentionList keeps addr across warm-start sleep. The list is
// laid out as [count, (addr_hi, addr_lo) x SX126X_MAX_RETENTION_REGS].
func (d *Device) addRegisterToRetentionList(addr uint16) error {
	var buf [1 + 2*SX126X_MAX_RETENTION_REGS]uint8

	if err := d.readRegisters(RegRetentionList, buf[:]); err != nil {
		return err
	}

	count := int(buf[0])
	if count > SX126X_MAX_RETENTION_REGS {
		count = SX126X_MAX_RETENTION_REGS
	}
	for i := 0; i < count; i++ {
		if addr == uint16(buf[1+2*i])<<8|uint16(buf[2+2*i]) {
			return nil
		}
	}

	if count >= SX126X_MAX_RETENTION_REGS {
		return ErrRetentionListExceeded
	}
	buf[0] = uint8(count + 1)
	buf[1+2*count] = uint8((addr >> 8) & 0xFF)
	buf[2+2*count] = uint8(addr & 0xFF)
	return d.writeRegisters(RegRetentionList, buf[:])
}
