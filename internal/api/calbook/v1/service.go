package calbookv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "calbook.v1.SchedulingService"

const (
	SchedulingService_ComputeFreeSlots_FullMethodName   = "/" + ServiceName + "/ComputeFreeSlots"
	SchedulingService_CheckSlot_FullMethodName          = "/" + ServiceName + "/CheckSlot"
	SchedulingService_BookAppointment_FullMethodName    = "/" + ServiceName + "/BookAppointment"
	SchedulingService_CancelAppointment_FullMethodName  = "/" + ServiceName + "/CancelAppointment"
	SchedulingService_SearchAppointments_FullMethodName = "/" + ServiceName + "/SearchAppointments"
	SchedulingService_ExportFreeBusy_FullMethodName     = "/" + ServiceName + "/ExportFreeBusy"
)

type SchedulingServiceServer interface {
	ComputeFreeSlots(context.Context, *ComputeFreeSlotsRequest) (*ComputeFreeSlotsResponse, error)
	CheckSlot(context.Context, *CheckSlotRequest) (*CheckSlotResponse, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*BookAppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error)
	SearchAppointments(context.Context, *SearchAppointmentsRequest) (*SearchAppointmentsResponse, error)
	ExportFreeBusy(context.Context, *ExportFreeBusyRequest) (*ExportFreeBusyResponse, error)
}

// UnimplementedSchedulingServiceServer answers every method with
// codes.Unimplemented. Embed it by value.
type UnimplementedSchedulingServiceServer struct{}

func (UnimplementedSchedulingServiceServer) ComputeFreeSlots(context.Context, *ComputeFreeSlotsRequest) (*ComputeFreeSlotsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeFreeSlots not implemented")
}

func (UnimplementedSchedulingServiceServer) CheckSlot(context.Context, *CheckSlotRequest) (*CheckSlotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckSlot not implemented")
}

func (UnimplementedSchedulingServiceServer) BookAppointment(context.Context, *BookAppointmentRequest) (*BookAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BookAppointment not implemented")
}

func (UnimplementedSchedulingServiceServer) CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelAppointment not implemented")
}

func (UnimplementedSchedulingServiceServer) SearchAppointments(context.Context, *SearchAppointmentsRequest) (*SearchAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchAppointments not implemented")
}

func (UnimplementedSchedulingServiceServer) ExportFreeBusy(context.Context, *ExportFreeBusyRequest) (*ExportFreeBusyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExportFreeBusy not implemented")
}

func RegisterSchedulingServiceServer(s grpc.ServiceRegistrar, srv SchedulingServiceServer) {
	s.RegisterService(&SchedulingService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.Handler.
func unaryHandler[Srv any, Req any, Resp any](fullMethod string, call func(Srv, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(Srv), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(Srv), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var SchedulingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ComputeFreeSlots",
			Handler:    unaryHandler(SchedulingService_ComputeFreeSlots_FullMethodName, SchedulingServiceServer.ComputeFreeSlots),
		},
		{
			MethodName: "CheckSlot",
			Handler:    unaryHandler(SchedulingService_CheckSlot_FullMethodName, SchedulingServiceServer.CheckSlot),
		},
		{
			MethodName: "BookAppointment",
			Handler:    unaryHandler(SchedulingService_BookAppointment_FullMethodName, SchedulingServiceServer.BookAppointment),
		},
		{
			MethodName: "CancelAppointment",
			Handler:    unaryHandler(SchedulingService_CancelAppointment_FullMethodName, SchedulingServiceServer.CancelAppointment),
		},
		{
			MethodName: "SearchAppointments",
			Handler:    unaryHandler(SchedulingService_SearchAppointments_FullMethodName, SchedulingServiceServer.SearchAppointments),
		},
		{
			MethodName: "ExportFreeBusy",
			Handler:    unaryHandler(SchedulingService_ExportFreeBusy_FullMethodName, SchedulingServiceServer.ExportFreeBusy),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calbook/v1/calbook.proto",
}

type SchedulingServiceClient interface {
	ComputeFreeSlots(ctx context.Context, in *ComputeFreeSlotsRequest, opts ...grpc.CallOption) (*ComputeFreeSlotsResponse, error)
	CheckSlot(ctx context.Context, in *CheckSlotRequest, opts ...grpc.CallOption) (*CheckSlotResponse, error)
	BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*BookAppointmentResponse, error)
	CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error)
	SearchAppointments(ctx context.Context, in *SearchAppointmentsRequest, opts ...grpc.CallOption) (*SearchAppointmentsResponse, error)
	ExportFreeBusy(ctx context.Context, in *ExportFreeBusyRequest, opts ...grpc.CallOption) (*ExportFreeBusyResponse, error)
}

type schedulingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingServiceClient(cc grpc.ClientConnInterface) SchedulingServiceClient {
	return &schedulingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulingServiceClient) ComputeFreeSlots(ctx context.Context, in *ComputeFreeSlotsRequest, opts ...grpc.CallOption) (*ComputeFreeSlotsResponse, error) {
	return invoke[ComputeFreeSlotsResponse](ctx, c.cc, SchedulingService_ComputeFreeSlots_FullMethodName, in, opts)
}

func (c *schedulingServiceClient) CheckSlot(ctx context.Context, in *CheckSlotRequest, opts ...grpc.CallOption) (*CheckSlotResponse, error) {
	return invoke[CheckSlotResponse](ctx, c.cc, SchedulingService_CheckSlot_FullMethodName, in, opts)
}

func (c *schedulingServiceClient) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*BookAppointmentResponse, error) {
	return invoke[BookAppointmentResponse](ctx, c.cc, SchedulingService_BookAppointment_FullMethodName, in, opts)
}

func (c *schedulingServiceClient) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error) {
	return invoke[CancelAppointmentResponse](ctx, c.cc, SchedulingService_CancelAppointment_FullMethodName, in, opts)
}

func (c *schedulingServiceClient) SearchAppointments(ctx context.Context, in *SearchAppointmentsRequest, opts ...grpc.CallOption) (*SearchAppointmentsResponse, error) {
	return invoke[SearchAppointmentsResponse](ctx, c.cc, SchedulingService_SearchAppointments_FullMethodName, in, opts)
}

func (c *schedulingServiceClient) ExportFreeBusy(ctx context.Context, in *ExportFreeBusyRequest, opts ...grpc.CallOption) (*ExportFreeBusyResponse, error) {
	return invoke[ExportFreeBusyResponse](ctx, c.cc, SchedulingService_ExportFreeBusy_FullMethodName, in, opts)
}
