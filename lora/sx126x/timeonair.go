package sx126x

// lowDataRateOptimize is mandated when the symbol time exceeds 16ms.
func lowDataRateOptimize(sf SpreadingFactor, bw Bandwidth) bool {
	return ((sf == SF11 || sf == SF12) && bw == Bandwidth125KHz) ||
		(sf == SF12 && bw == Bandwidth250KHz)
}

// effectivePreamble enforces the 12 symbol minimum of SF5 and SF6.
func effectivePreamble(sf SpreadingFactor, preambleLength uint16) uint16 {
	if (sf == SF5 || sf == SF6) && preambleLength < 12 {
		return 12
	}
	return preambleLength
}

// timeOnAirNumerator returns the packet length in chips.
func timeOnAirNumerator(sf SpreadingFactor, bw Bandwidth, cr CodingRate,
	preambleLength uint16, fixedLen bool, payloadLen uint8, crcOn bool) uint32 {

	crDenom := int32(cr) + 4
	preamble := int32(effectivePreamble(sf, preambleLength))
	s := int32(sf)

	num := int32(payloadLen)<<3 - 4*s
	if crcOn {
		num += 16
	}
	if !fixedLen {
		num += 20
	}
	if num < 0 {
		num = 0
	}

	var denom int32
	if s <= 6 {
		denom = 4 * s
	} else {
		num += 8
		if lowDataRateOptimize(sf, bw) {
			denom = 4 * (s - 2)
		} else {
			denom = 4 * s
		}
	}

	intermediate := (num+denom-1)/denom*crDenom + preamble + 12
	if s <= 6 {
		intermediate += 2
	}
	return uint32((4*intermediate + 1) * (1 << uint(s-2)))
}

// TimeOnAir computes the packet time on air in ms for a LoRa frame of
// payloadLen bytes.
//   sf              spreading factor
//   bw              bandwidth; a reserved code fails with ErrInvalidBandwidth
//   cr              coding rate
//   preambleLength  length in symbols (the hardware adds 4 more symbols)
//   fixedLen        implicit header (no length field on air)
//   crcOn           payload CRC present
func TimeOnAir(sf SpreadingFactor, bw Bandwidth, cr CodingRate, preambleLength uint16,
	fixedLen bool, payloadLen uint8, crcOn bool) (uint32, error) {

	hz := uint64(bw.Hertz())
	if hz == 0 {
		return 0, ErrInvalidBandwidth
	}
	num := 1000 * uint64(timeOnAirNumerator(sf, bw, cr, preambleLength, fixedLen, payloadLen, crcOn))
	return uint32((num + hz - 1) / hz), nil
}
