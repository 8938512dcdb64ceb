package calbookv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DirectoryServiceName = "calbook.v1.DirectoryService"

const (
	DirectoryService_CreateUser_FullMethodName               = "/" + DirectoryServiceName + "/CreateUser"
	DirectoryService_GetUser_FullMethodName                  = "/" + DirectoryServiceName + "/GetUser"
	DirectoryService_ListUsers_FullMethodName                = "/" + DirectoryServiceName + "/ListUsers"
	DirectoryService_UpdateAvailability_FullMethodName       = "/" + DirectoryServiceName + "/UpdateAvailability"
	DirectoryService_CreateCalendar_FullMethodName           = "/" + DirectoryServiceName + "/CreateCalendar"
	DirectoryService_ListCalendarAppointments_FullMethodName = "/" + DirectoryServiceName + "/ListCalendarAppointments"
)

// DirectoryServiceServer manages users, their availability and their
// calendars.
type DirectoryServiceServer interface {
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error)
	GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	UpdateAvailability(context.Context, *UpdateAvailabilityRequest) (*UpdateAvailabilityResponse, error)
	CreateCalendar(context.Context, *CreateCalendarRequest) (*CreateCalendarResponse, error)
	ListCalendarAppointments(context.Context, *ListCalendarAppointmentsRequest) (*ListCalendarAppointmentsResponse, error)
}

type UnimplementedDirectoryServiceServer struct{}

func (UnimplementedDirectoryServiceServer) CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateUser not implemented")
}

func (UnimplementedDirectoryServiceServer) GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
}

func (UnimplementedDirectoryServiceServer) ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListUsers not implemented")
}

func (UnimplementedDirectoryServiceServer) UpdateAvailability(context.Context, *UpdateAvailabilityRequest) (*UpdateAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateAvailability not implemented")
}

func (UnimplementedDirectoryServiceServer) CreateCalendar(context.Context, *CreateCalendarRequest) (*CreateCalendarResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateCalendar not implemented")
}

func (UnimplementedDirectoryServiceServer) ListCalendarAppointments(context.Context, *ListCalendarAppointmentsRequest) (*ListCalendarAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCalendarAppointments not implemented")
}

func RegisterDirectoryServiceServer(s grpc.ServiceRegistrar, srv DirectoryServiceServer) {
	s.RegisterService(&DirectoryService_ServiceDesc, srv)
}

var DirectoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DirectoryServiceName,
	HandlerType: (*DirectoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateUser",
			Handler:    unaryHandler(DirectoryService_CreateUser_FullMethodName, DirectoryServiceServer.CreateUser),
		},
		{
			MethodName: "GetUser",
			Handler:    unaryHandler(DirectoryService_GetUser_FullMethodName, DirectoryServiceServer.GetUser),
		},
		{
			MethodName: "ListUsers",
			Handler:    unaryHandler(DirectoryService_ListUsers_FullMethodName, DirectoryServiceServer.ListUsers),
		},
		{
			MethodName: "UpdateAvailability",
			Handler:    unaryHandler(DirectoryService_UpdateAvailability_FullMethodName, DirectoryServiceServer.UpdateAvailability),
		},
		{
			MethodName: "CreateCalendar",
			Handler:    unaryHandler(DirectoryService_CreateCalendar_FullMethodName, DirectoryServiceServer.CreateCalendar),
		},
		{
			MethodName: "ListCalendarAppointments",
			Handler:    unaryHandler(DirectoryService_ListCalendarAppointments_FullMethodName, DirectoryServiceServer.ListCalendarAppointments),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calbook/v1/calbook.proto",
}

type DirectoryServiceClient interface {
	CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserResponse, error)
	GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error)
	ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error)
	UpdateAvailability(ctx context.Context, in *UpdateAvailabilityRequest, opts ...grpc.CallOption) (*UpdateAvailabilityResponse, error)
	CreateCalendar(ctx context.Context, in *CreateCalendarRequest, opts ...grpc.CallOption) (*CreateCalendarResponse, error)
	ListCalendarAppointments(ctx context.Context, in *ListCalendarAppointmentsRequest, opts ...grpc.CallOption) (*ListCalendarAppointmentsResponse, error)
}

type directoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDirectoryServiceClient(cc grpc.ClientConnInterface) DirectoryServiceClient {
	return &directoryServiceClient{cc: cc}
}

func (c *directoryServiceClient) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserResponse, error) {
	return invoke[CreateUserResponse](ctx, c.cc, DirectoryService_CreateUser_FullMethodName, in, opts)
}

func (c *directoryServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error) {
	return invoke[GetUserResponse](ctx, c.cc, DirectoryService_GetUser_FullMethodName, in, opts)
}

func (c *directoryServiceClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, DirectoryService_ListUsers_FullMethodName, in, opts)
}

func (c *directoryServiceClient) UpdateAvailability(ctx context.Context, in *UpdateAvailabilityRequest, opts ...grpc.CallOption) (*UpdateAvailabilityResponse, error) {
	return invoke[UpdateAvailabilityResponse](ctx, c.cc, DirectoryService_UpdateAvailability_FullMethodName, in, opts)
}

func (c *directoryServiceClient) CreateCalendar(ctx context.Context, in *CreateCalendarRequest, opts ...grpc.CallOption) (*CreateCalendarResponse, error) {
	return invoke[CreateCalendarResponse](ctx, c.cc, DirectoryService_CreateCalendar_FullMethodName, in, opts)
}

func (c *directoryServiceClient) ListCalendarAppointments(ctx context.Context, in *ListCalendarAppointmentsRequest, opts ...grpc.CallOption) (*ListCalendarAppointmentsResponse, error) {
	return invoke[ListCalendarAppointmentsResponse](ctx, c.cc, DirectoryService_ListCalendarAppointments_FullMethodName, in, opts)
}
