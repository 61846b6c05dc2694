package packet

// CRC-16-CCITT: polynomial 0x1021, initial value 0xFFFF, no final XOR.
// Detects every 1- and 2-bit error and most bursts up to 16 bits, which is
// what the 2-byte trailer buys over a plain checksum.

var crcTable = makeCRCTable()

func makeCRCTable() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CRC16 computes the CRC-16-CCITT checksum of data.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
