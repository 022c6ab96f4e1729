package lab

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// liveInputMIME is the PCM format the browser streams up.
const liveInputMIME = "audio/pcm;rate=16000"

// liveSession is the slice of the genai live session the bridge uses.
type liveSession interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

// liveConn is the slice of the websocket connection the bridge uses.
type liveConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// BridgeLive relays audio between a browser websocket and a Gemini
// live session: binary frames from the client are forwarded as
// realtime PCM input, and the model's audio turns are written back as
// binary frames. The bridge runs until either side closes or ctx is
// cancelled.
func (l *Lab) BridgeLive(ctx context.Context, conn *websocket.Conn) error {
	session, err := l.genai.Live.Connect(ctx, ModelLive, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	})
	if err != nil {
		return fmt.Errorf("lab.BridgeLive: connect live session: %w", err)
	}
	return l.bridge(ctx, session, conn)
}

func (l *Lab) bridge(ctx context.Context, session liveSession, conn liveConn) error {
	g, ctx := errgroup.WithContext(ctx)

	// Neither ReadMessage nor Receive observes ctx, so when one side
	// fails the reader blocked on the other side has to be unblocked by
	// closing its endpoint. Both loops only exit with an error, which
	// cancels the group context and wakes this goroutine.
	g.Go(func() error {
		<-ctx.Done()
		session.Close()
		conn.Close()
		return ctx.Err()
	})

	// Upstream: client microphone -> model.
	g.Go(func() error {
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("read client frame: %w", err)
			}
			if msgType != websocket.BinaryMessage || len(data) == 0 {
				continue
			}
			if err := session.SendRealtimeInput(genai.LiveRealtimeInput{
				Media: &genai.Blob{MIMEType: liveInputMIME, Data: data},
			}); err != nil {
				return fmt.Errorf("send realtime input: %w", err)
			}
		}
	})

	// Downstream: model audio -> client.
	g.Go(func() error {
		for {
			msg, err := session.Receive()
			if err != nil {
				return fmt.Errorf("receive live message: %w", err)
			}
			for _, data := range liveAudioChunks(msg) {
				if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
					return fmt.Errorf("write client frame: %w", err)
				}
			}
		}
	})

	err := g.Wait()
	l.log.Info().Err(err).Msg("Live session closed")
	return err
}

func liveAudioChunks(msg *genai.LiveServerMessage) [][]byte {
	if msg == nil || msg.ServerContent == nil || msg.ServerContent.ModelTurn == nil {
		return nil
	}
	var chunks [][]byte
	for _, part := range msg.ServerContent.ModelTurn.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			chunks = append(chunks, part.InlineData.Data)
		}
	}
	return chunks
}
