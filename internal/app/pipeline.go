package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/postural/internal/capture"
	"github.com/ayusman/postural/internal/pose"
)

// readErrorBackoff is how long the producer waits after a failed read.
const readErrorBackoff = 100 * time.Millisecond

// runPipeline runs one frame producer and one consumer joined by a
// keep-only-latest slot:
//
//  1. the producer reads the camera at its frame rate, refreshes the preview
//     frame and puts the frame in the slot, dropping an untaken one
//  2. the consumer takes frames one at a time, detects the pose, classifies
//     it and dispatches the stable command
//
// A slow detector or plugin therefore skips frames instead of queuing them.
func (a *App) runPipeline(ctx context.Context, slot *capture.Latest[*gocv.Mat], done chan struct{}) {
	defer close(done)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		a.consume(ctx, slot)
	}()

	a.produce(ctx, slot)
	slot.Close()
	<-consumerDone

	if n := slot.Dropped(); n > 0 {
		a.logger.Debug("frames dropped under load", "count", n)
	}
}

func (a *App) produce(ctx context.Context, slot *capture.Latest[*gocv.Mat]) {
	fps := a.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if !errors.Is(err, lastErr) {
				a.logger.Warn("read frame", "error", err)
			}
			lastErr = err
			select {
			case <-ctx.Done():
				return
			case <-time.After(readErrorBackoff):
			}
			continue
		}
		lastErr = nil

		a.setPreview(frame)
		slot.Put(frame)
	}
}

func (a *App) consume(ctx context.Context, slot *capture.Latest[*gocv.Mat]) {
	var lastErr string
	for {
		frame, err := slot.Take(ctx)
		if err != nil {
			return
		}
		err = a.processFrame(ctx, frame)
		frame.Close()
		lastErr = a.logDetectError(err, lastErr)
	}
}

// logDetectError warns once per distinct detection failure and notes the
// recovery. It returns the message to compare the next failure against.
func (a *App) logDetectError(err error, last string) string {
	if err == nil {
		if last != "" {
			a.logger.Info("pose detection recovered")
		}
		return ""
	}
	if msg := err.Error(); msg != last {
		a.logger.Warn("pose detection failed", "error", err)
		return msg
	}
	return last
}

// processFrame detects the pose in frame and hands the snapshot on. A failed
// detection counts as nobody in view and is returned for logging.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat) error {
	if !a.IsEnabled() {
		return nil
	}

	det := a.Detector()
	if det == nil {
		return nil
	}

	snap, err := det.Detect(frame)
	if err != nil {
		snap = pose.NewSnapshot(nil)
	}

	a.ProcessSnapshot(ctx, snap)
	return err
}
