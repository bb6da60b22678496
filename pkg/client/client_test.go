package client

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/krbcrypto"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

func TestDefaultSalt_OrdinaryPrincipal(t *testing.T) {
	realm, err := messages.NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	cname, err := messages.NewPrincipalName(messages.NameTypePrincipal, "mickey")
	require.NoError(t, err)
	assert.Equal(t, "KINGDOM.HEARTSmickey", defaultSalt(realm, cname))
}

func TestDefaultSalt_MachineAccount(t *testing.T) {
	realm, err := messages.NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	cname, err := messages.NewPrincipalName(messages.NameTypePrincipal, "DISNEYCASTLE$")
	require.NoError(t, err)
	assert.Equal(t, "KINGDOM.HEARTShostdisneycastle", defaultSalt(realm, cname))
}

func TestRandomNonce_Is31Bit(t *testing.T) {
	for i := 0; i < 64; i++ {
		n, err := randomNonce()
		require.NoError(t, err)
		assert.LessOrEqual(t, n, uint32(0x7FFFFFFF))
	}
}

func TestSupportedEtypes_PinnedForRawKeyCredential(t *testing.T) {
	e := &asExchange{credential: NewAes128KeyCredential(make([]byte, 16))}
	assert.Equal(t, []int32{krbcrypto.EtypeAes128CtsHmacSha1}, e.supportedEtypes())
}

func TestSupportedEtypes_FullListForPassword(t *testing.T) {
	e := &asExchange{credential: NewPasswordCredential("x")}
	assert.Equal(t, krbcrypto.SupportedEtypes, e.supportedEtypes())
}

func TestKrbError_ErrorMessage(t *testing.T) {
	err := &KrbError{Code: 25, Text: "preauth required"}
	assert.Contains(t, err.Error(), "25")
	assert.Contains(t, err.Error(), "preauth required")
}

func TestProtocolError_Message(t *testing.T) {
	err := &ProtocolError{Kind: ProtocolNonceMismatch}
	assert.Equal(t, "as-exchange: nonce mismatch", err.Error())
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := io.ErrClosedPipe
	err := &TransportError{Kind: TransportReadFailed, Err: inner}
	assert.ErrorIs(t, err, inner)
}

// lengthPrefixedEcho accepts one TCP connection, reads one length-prefixed
// message, and replies with the given fixed response in the same framing.
func lengthPrefixedEcho(t *testing.T, ln net.Listener, response []byte) {
	t.Helper()
	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()

	var lenBuf [4]byte
	_, err = io.ReadFull(conn, lenBuf[:])
	require.NoError(t, err)
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)

	var out [4]byte
	binary.BigEndian.PutUint32(out[:], uint32(len(response)))
	_, err = conn.Write(out[:])
	require.NoError(t, err)
	_, err = conn.Write(response)
	require.NoError(t, err)
}

func TestTcpTransport_SendReceivesFramedReply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	want := []byte("as-rep-bytes")
	done := make(chan struct{})
	go func() {
		defer close(done)
		lengthPrefixedEcho(t, ln, want)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := (tcpTransport{}).send(ctx, ln.Addr().String(), []byte("as-req-bytes"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	<-done
}

func TestTcpTransport_ConnectFailedClassified(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close() // nothing listening now

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = (tcpTransport{}).send(ctx, addr, []byte("x"))
	require.Error(t, err)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, TransportConnectFailed, terr.Kind)
}

func TestUdpTransport_SendReceivesUnframedReply(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	want := []byte("as-rep-bytes")
	go func() {
		buf := make([]byte, 2048)
		n, raddr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		_ = n
		pc.WriteTo(want, raddr)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := (udpTransport{}).send(ctx, pc.LocalAddr().String(), []byte("as-req-bytes"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConfig_TimeoutDefault(t *testing.T) {
	var c Config
	assert.Equal(t, DefaultTimeout, c.timeout())
	c.Timeout = 10 * time.Second
	assert.Equal(t, 10*time.Second, c.timeout())
}

func TestCredential_EtypeByKind(t *testing.T) {
	assert.Equal(t, int32(0), NewPasswordCredential("x").etype())
	assert.Equal(t, krbcrypto.EtypeRc4Hmac, NewRc4KeyCredential(make([]byte, 16)).etype())
	assert.Equal(t, krbcrypto.EtypeAes128CtsHmacSha1, NewAes128KeyCredential(make([]byte, 16)).etype())
	assert.Equal(t, krbcrypto.EtypeAes256CtsHmacSha1, NewAes256KeyCredential(make([]byte, 32)).etype())
}
