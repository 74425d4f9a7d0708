package tracking

import (
	"log"
	"time"

	"github.com/ayusman/pinchgrab/internal/detector"
)

// run is the detection loop.
//
//  1. Start idle (IdleFPS) when the motion gate is on, else active.
//  2. On motion, switch to ActiveFPS.
//  3. In active mode, detect and emit a LandmarkFrame every cycle, including
//     empty frames so the consumer sees the hand leave.
//  4. After IdleTimeout without motion, emit one empty frame and go idle.
func (s *Service) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	active := !s.config.MotionGate
	lastMotion := time.Now()

	interval := time.Second / time.Duration(s.config.IdleFPS)
	if active {
		interval = time.Second / time.Duration(s.config.ActiveFPS)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	setMode := func(toActive bool) {
		active = toActive
		fps := s.config.IdleFPS
		if toActive {
			fps = s.config.ActiveFPS
		}
		s.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
		s.count(func(st *Stats) { st.Active = toActive })
	}

	s.count(func(st *Stats) { st.Active = active })

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if !s.IsEnabled() {
			continue
		}
		s.count(func(st *Stats) { st.Cycles++ })

		frame, err := s.camera.ReadFrame()
		if err != nil {
			s.count(func(st *Stats) { st.Errors++ })
			log.Printf("Error reading frame: %v", err)
			continue
		}

		if s.config.MotionGate {
			moved, _ := s.motion.Detect(frame)
			switch {
			case moved:
				lastMotion = time.Now()
				if !active {
					setMode(true)
					log.Println("Tracking switched to active mode")
				}
			case active && time.Since(lastMotion) > s.config.IdleTimeout:
				setMode(false)
				s.emit(nil)
				log.Println("Tracking switched to idle mode")
			}
		}

		if !active {
			frame.Close()
			continue
		}

		hands, err := s.detector.Detect(frame)
		frame.Close()
		if err != nil {
			s.count(func(st *Stats) { st.Errors++ })
			log.Printf("Error detecting hands: %v", err)
			continue
		}

		s.count(func(st *Stats) { st.Detections++ })
		s.emit(hands)
	}
}

func (s *Service) emit(hands []detector.HandLandmarks) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	frame := detector.NewLandmarkFrame(hands)
	for _, fn := range handlers {
		fn(frame)
	}
}
