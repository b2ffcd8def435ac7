//go:build rf430

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RF430FRL15xH peripheral memory map
const (
	crcBase   = 0x0150
	sysBase   = 0x0180
	port1Base = 0x0200
	eusciBase = 0x0640
	sd14Base  = 0x0700
	rf13mBase = 0x0800
)

func reg8(addr uintptr) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(addr))
}

func reg16(addr uintptr) *volatile.Register16 {
	return (*volatile.Register16)(unsafe.Pointer(addr))
}

// CRC16 unit
var (
	crcDI     = reg16(crcBase + 0x00)
	crcINIRES = reg16(crcBase + 0x04)
)

// System configuration, high byte gates the boot ROM image validation
var sysCNFH = reg8(sysBase + 0x10 + 1)

const sysCNFValidation = 0x0F

// Port 1
var (
	p1OUT  = reg8(port1Base + 0x02)
	p1DIR  = reg8(port1Base + 0x04)
	p1SEL0 = reg8(port1Base + 0x0A)
	p1SEL1 = reg8(port1Base + 0x0C)
)

// eUSCI_B0 in I2C mode
var (
	ucb0CTLW0 = reg16(eusciBase + 0x00)
	ucb0BRW   = reg16(eusciBase + 0x06)
	ucb0RXBUF = reg16(eusciBase + 0x0C)
	ucb0TXBUF = reg16(eusciBase + 0x0E)
	ucb0I2CSA = reg16(eusciBase + 0x20)
	ucb0IE    = reg16(eusciBase + 0x2A)
	ucb0IFG   = reg16(eusciBase + 0x2C)
	ucb0IV    = reg16(eusciBase + 0x2E)
)

// UCB0CTLW0 bits
const (
	ucSWRST    = 0x0001
	ucTXSTT    = 0x0002
	ucTXSTP    = 0x0004
	ucTR       = 0x0010
	ucSSELACLK = 0x0040
	ucMODE3    = 0x0600
	ucMST      = 0x0800
)

// UCB0IE / UCB0IFG bits
const (
	ucRXIFG0  = 0x0001
	ucTXIFG0  = 0x0002
	ucNACKIFG = 0x0020
)

// UCB0IV values
const (
	ucIVNack = 0x04
	ucIVRx0  = 0x16
)

// SD14 sigma-delta converter
var (
	sd14CTL0 = reg16(sd14Base + 0x00)
	sd14CTL1 = reg16(sd14Base + 0x02)
	sd14MEM0 = reg16(sd14Base + 0x04)
)

// SD14CTL0 bits
const (
	sd14IFG      = 0x0001
	sd14SC       = 0x0010
	sd14EN       = 0x0020
	sd14SSELACLK = 0x0040
	sd14VIRTGND  = 0x0100
)

// RF13M transmit FIFO
var (
	rf13mTXF  = reg16(rf13mBase + 0x08)
	rf13mTXFL = reg8(rf13mBase + 0x08)
)
